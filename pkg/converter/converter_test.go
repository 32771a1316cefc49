package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/go-convert-kit/pkg/config"
	kiterrors "github.com/yourorg/go-convert-kit/pkg/errors"
	"github.com/yourorg/go-convert-kit/pkg/format"
	"github.com/yourorg/go-convert-kit/pkg/imageutil"
)

// ---- fakes ----

type fakePDFDoc struct {
	pages     int
	failPage  int // 1-based page whose render fails, 0 for none
	closed    int
	mu        sync.Mutex
	renderLog []int
}

func (d *fakePDFDoc) PageCount() int { return d.pages }

func (d *fakePDFDoc) RenderPage(n int, scale float64) (image.Image, error) {
	d.mu.Lock()
	d.renderLog = append(d.renderLog, n)
	d.mu.Unlock()
	if d.failPage == n+1 {
		return nil, errors.New("render blew up")
	}
	w := int(50 * scale)
	h := int(70 * scale)
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func (d *fakePDFDoc) Close() error {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
	return nil
}

type fakePDFRenderer struct {
	doc     *fakePDFDoc
	openErr error

	// When set, Open blocks until unblock is closed; started is closed once
	// Open has been entered. Used to hold a conversion in flight.
	started chan struct{}
	unblock chan struct{}
}

func (r *fakePDFRenderer) Open(data []byte) (PDFDocument, error) {
	if r.started != nil {
		close(r.started)
		<-r.unblock
	}
	if r.openErr != nil {
		return nil, r.openErr
	}
	return r.doc, nil
}

type fakeMarkupExtractor struct {
	markup string
	err    error
}

func (m *fakeMarkupExtractor) ToMarkup(data []byte) (string, error) {
	return m.markup, m.err
}

type fakeMarkupRenderer struct {
	data  []byte
	pages int
	err   error
}

func (m *fakeMarkupRenderer) RenderPDF(markup, pageSize string) ([]byte, int, error) {
	return m.data, m.pages, m.err
}

// testCaps returns production capabilities with the PDF renderer (and
// optionally office collaborators) replaced by fakes. gofpdf and the raster
// codec are pure enough to use for real.
func testCaps(renderer PDFRenderer) Capabilities {
	caps := DefaultCapabilities()
	if renderer != nil {
		caps.PDFRenderer = renderer
	}
	return caps
}

func newTestConverter(t *testing.T, caps Capabilities) *Converter {
	t.Helper()
	return NewWithCapabilities(config.DefaultConfig(), nil, caps)
}

func pngFile(t *testing.T, name string, w, h int) File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return File{Name: name, MIMEType: "image/png", Data: buf.Bytes()}
}

func pdfFile(name string) File {
	return File{Name: name, MIMEType: "application/pdf", Data: []byte("%PDF-1.4 stub")}
}

// progressRecorder collects events and asserts the ordering invariant.
type progressRecorder struct {
	percents []int
	messages []string
}

func (p *progressRecorder) fn() ProgressFunc {
	return func(percent int, message string) {
		p.percents = append(p.percents, percent)
		p.messages = append(p.messages, message)
	}
}

func (p *progressRecorder) assertMonotonicTo100(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, p.percents)
	last := 0
	for i, pct := range p.percents {
		assert.GreaterOrEqual(t, pct, last, "progress regressed at event %d: %v", i, p.percents)
		assert.LessOrEqual(t, pct, 100)
		last = pct
	}
	assert.Equal(t, 100, p.percents[len(p.percents)-1])
}

// ---- PDF to image ----

func TestConvert_SinglePagePDFToPNG(t *testing.T) {
	doc := &fakePDFDoc{pages: 1}
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{doc: doc}))
	rec := &progressRecorder{}

	artifacts, err := conv.Convert(context.Background(), pdfFile("report.pdf"), format.PNG, rec.fn(), nil)
	require.NoError(t, err)

	require.Len(t, artifacts, 1)
	assert.Equal(t, "report.png", artifacts[0].Name)
	assert.Equal(t, 1, artifacts[0].PageNumber)
	assert.Equal(t, "image/png", artifacts[0].MIMEType)
	assert.Equal(t, int64(len(artifacts[0].Data)), artifacts[0].Size)
	// Default scale 2.0 over a 50x70 page.
	assert.Equal(t, 100, artifacts[0].Width)
	assert.Equal(t, 140, artifacts[0].Height)

	rec.assertMonotonicTo100(t)
	assert.GreaterOrEqual(t, doc.closed, 1, "decoder must be released")
}

func TestConvert_MultiPagePDFToPNG_NamesAndOrder(t *testing.T) {
	doc := &fakePDFDoc{pages: 3}
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{doc: doc}))

	artifacts, err := conv.Convert(context.Background(), pdfFile("scan.pdf"), format.PNG, nil, nil)
	require.NoError(t, err)

	require.Len(t, artifacts, 3)
	for i, a := range artifacts {
		assert.Equal(t, fmt.Sprintf("scan_page_%d.png", i+1), a.Name)
		assert.Equal(t, i+1, a.PageNumber)
	}
	// Pages rendered strictly in input order.
	assert.Equal(t, []int{0, 1, 2}, doc.renderLog)
}

func TestConvert_PDFToJPG(t *testing.T) {
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{doc: &fakePDFDoc{pages: 1}}))

	artifacts, err := conv.Convert(context.Background(), pdfFile("doc.pdf"), format.JPG, nil, &Options{Quality: 0.8})
	require.NoError(t, err)
	assert.Equal(t, "doc.jpg", artifacts[0].Name)
	assert.Equal(t, "image/jpeg", artifacts[0].MIMEType)
}

func TestConvert_FailurePartwayReturnsNoArtifacts(t *testing.T) {
	doc := &fakePDFDoc{pages: 4, failPage: 3}
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{doc: doc}))

	artifacts, err := conv.Convert(context.Background(), pdfFile("scan.pdf"), format.PNG, nil, nil)

	assert.Nil(t, artifacts, "multi-page pipelines are all-or-nothing")
	require.Error(t, err)
	assert.True(t, kiterrors.IsPipeline(err))
	assert.Contains(t, err.Error(), "page 3")
	assert.GreaterOrEqual(t, doc.closed, 1, "decoder must be released on failure too")
	assert.False(t, conv.Busy())
}

func TestConvert_OpenFailure(t *testing.T) {
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{openErr: errors.New("bad header")}))

	_, err := conv.Convert(context.Background(), pdfFile("junk.pdf"), format.PNG, nil, nil)
	require.Error(t, err)
	assert.True(t, kiterrors.IsPipeline(err))
	assert.False(t, conv.Busy())
}

func TestConvert_ZeroPagePDF(t *testing.T) {
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{doc: &fakePDFDoc{pages: 0}}))

	_, err := conv.Convert(context.Background(), pdfFile("empty.pdf"), format.PNG, nil, nil)
	require.Error(t, err)
	assert.True(t, kiterrors.IsPipeline(err))
	assert.Contains(t, err.Error(), "no pages")
}

func TestConvert_ContextCancellationBetweenPages(t *testing.T) {
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{doc: &fakePDFDoc{pages: 5}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.Convert(ctx, pdfFile("scan.pdf"), format.PNG, nil, nil)
	require.Error(t, err)
	assert.True(t, kiterrors.IsPipeline(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

// ---- image pipelines ----

func TestConvert_PNGToJPG_PreservesDimensions(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))
	rec := &progressRecorder{}

	artifacts, err := conv.Convert(context.Background(), pngFile(t, "photo.png", 80, 60), format.JPG, rec.fn(), nil)
	require.NoError(t, err)

	require.Len(t, artifacts, 1)
	assert.Equal(t, "photo.jpg", artifacts[0].Name)
	assert.Equal(t, 80, artifacts[0].Width)
	assert.Equal(t, 60, artifacts[0].Height)
	rec.assertMonotonicTo100(t)

	// Round-trip back to PNG via the codec: dimensions must survive.
	codec := imageutil.NewCodec()
	img, err := codec.Decode(artifacts[0].Data, format.JPG)
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestConvert_ImageToPDF_RedirectsToImageSetPipeline(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))

	artifacts, err := conv.Convert(context.Background(), pngFile(t, "photo.png", 40, 40), format.PDF, nil, nil)
	require.NoError(t, err)

	require.Len(t, artifacts, 1)
	assert.Equal(t, "photo.pdf", artifacts[0].Name)
	assert.Equal(t, 1, artifacts[0].PageCount)
	assert.True(t, bytes.HasPrefix(artifacts[0].Data, []byte("%PDF")))
}

func TestConvert_CorruptImageBytesFailInPipeline(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))
	file := File{Name: "broken.png", MIMEType: "image/png", Data: []byte("not a png")}

	_, err := conv.Convert(context.Background(), file, format.JPG, nil, nil)
	require.Error(t, err)
	assert.True(t, kiterrors.IsPipeline(err), "format mismatch fails in the pipeline, not detection")
}

func TestConvertImageSet_PageCountMatchesInput(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))
	rec := &progressRecorder{}

	files := []File{
		pngFile(t, "a.png", 30, 40),
		pngFile(t, "b.png", 400, 100),
		pngFile(t, "c.png", 25, 25),
	}

	artifacts, err := conv.ConvertImageSet(context.Background(), files, rec.fn(), nil)
	require.NoError(t, err)

	require.Len(t, artifacts, 1)
	assert.Equal(t, "converted_images.pdf", artifacts[0].Name)
	assert.Equal(t, 3, artifacts[0].PageCount)
	assert.True(t, bytes.HasPrefix(artifacts[0].Data, []byte("%PDF")))
	rec.assertMonotonicTo100(t)
}

func TestConvertImageSet_SingleImageUsesItsName(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))

	artifacts, err := conv.ConvertImageSet(context.Background(), []File{pngFile(t, "receipt.png", 50, 50)}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "receipt.pdf", artifacts[0].Name)
	assert.Equal(t, 1, artifacts[0].PageCount)
}

func TestConvertImageSet_EmptySet(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))

	_, err := conv.ConvertImageSet(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.True(t, kiterrors.IsValidation(err))
}

func TestConvertImageSet_RejectsNonImage(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))

	files := []File{pngFile(t, "a.png", 10, 10), pdfFile("doc.pdf")}
	_, err := conv.ConvertImageSet(context.Background(), files, nil, nil)
	require.Error(t, err)
	assert.True(t, kiterrors.IsValidation(err))
}

// ---- office pipeline ----

func TestConvert_DocxToPDF(t *testing.T) {
	caps := testCaps(nil)
	caps.Markup = &fakeMarkupExtractor{markup: "<h1>Title</h1><p>Body text.</p>"}
	conv := newTestConverter(t, caps)
	rec := &progressRecorder{}

	file := File{
		Name:     "memo.docx",
		MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:     []byte("stub"),
	}

	artifacts, err := conv.Convert(context.Background(), file, format.PDF, rec.fn(), nil)
	require.NoError(t, err)

	require.Len(t, artifacts, 1)
	assert.Equal(t, "memo.pdf", artifacts[0].Name)
	assert.Equal(t, 1, artifacts[0].PageCount)
	assert.True(t, bytes.HasPrefix(artifacts[0].Data, []byte("%PDF")))
	rec.assertMonotonicTo100(t)
}

func TestConvert_DocxToImage_FeedsPDFPipeline(t *testing.T) {
	doc := &fakePDFDoc{pages: 2}
	caps := testCaps(&fakePDFRenderer{doc: doc})
	caps.Markup = &fakeMarkupExtractor{markup: "<p>content</p>"}
	caps.MarkupPDF = &fakeMarkupRenderer{data: []byte("%PDF-1.4 rendered"), pages: 2}
	conv := newTestConverter(t, caps)
	rec := &progressRecorder{}

	file := File{Name: "memo.docx", MIMEType: "", Data: []byte("stub")}

	artifacts, err := conv.Convert(context.Background(), file, format.PNG, rec.fn(), nil)
	require.NoError(t, err)

	require.Len(t, artifacts, 2)
	assert.Equal(t, "memo_page_1.png", artifacts[0].Name)
	assert.Equal(t, "memo_page_2.png", artifacts[1].Name)
	rec.assertMonotonicTo100(t)
	assert.GreaterOrEqual(t, doc.closed, 1)
}

func TestConvert_DocxWithNoContent(t *testing.T) {
	caps := testCaps(nil)
	caps.Markup = &fakeMarkupExtractor{markup: "<p> </p>\n<p>&nbsp;</p>"}
	conv := newTestConverter(t, caps)

	file := File{Name: "blank.docx", MIMEType: "", Data: []byte("stub")}

	artifacts, err := conv.Convert(context.Background(), file, format.PDF, nil, nil)
	assert.Nil(t, artifacts)
	require.Error(t, err)
	assert.True(t, kiterrors.IsPipeline(err))
	assert.Contains(t, err.Error(), "no content")
	assert.False(t, conv.Busy())
}

// ---- validation ----

func TestValidate(t *testing.T) {
	small := config.DefaultConfig()
	small.MaxFileSizeMB = 1
	conv := NewWithCapabilities(small, nil, testCaps(nil))

	t.Run("missing file", func(t *testing.T) {
		err := conv.Validate(File{}, "")
		assert.True(t, kiterrors.IsValidation(err))
		assert.Contains(t, err.Error(), "no file")
	})

	t.Run("unsupported format", func(t *testing.T) {
		err := conv.Validate(File{Name: "movie.mp4", MIMEType: "video/mp4", Data: []byte("x")}, "")
		assert.True(t, kiterrors.IsValidation(err))
	})

	t.Run("route not in matrix", func(t *testing.T) {
		err := conv.Validate(pdfFile("a.pdf"), format.WEBP)
		assert.True(t, kiterrors.IsUnsupportedRoute(err))
	})

	t.Run("oversize rejected, at-limit accepted", func(t *testing.T) {
		over := File{Name: "big.pdf", MIMEType: "application/pdf", Data: make([]byte, 1024*1024+1)}
		err := conv.Validate(over, format.PNG)
		assert.True(t, kiterrors.IsValidation(err))
		assert.Contains(t, err.Error(), "exceeds")

		atLimit := File{Name: "ok.pdf", MIMEType: "application/pdf", Data: make([]byte, 1024*1024)}
		assert.NoError(t, conv.Validate(atLimit, format.PNG))
	})

	t.Run("zero-byte file rejected regardless of type", func(t *testing.T) {
		for _, f := range []File{
			{Name: "a.pdf", MIMEType: "application/pdf"},
			{Name: "a.png", MIMEType: "image/png"},
			{Name: "a.docx"},
		} {
			err := conv.Validate(f, "")
			assert.True(t, kiterrors.IsValidation(err), f.Name)
			assert.Contains(t, err.Error(), "empty", f.Name)
		}
	})
}

func TestConvert_UnsupportedRoute(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))

	artifacts, err := conv.Convert(context.Background(), pdfFile("a.pdf"), format.WEBP, nil, nil)
	assert.Nil(t, artifacts)
	assert.True(t, kiterrors.IsUnsupportedRoute(err))
}

func TestConvert_InvalidOptions(t *testing.T) {
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{doc: &fakePDFDoc{pages: 1}}))

	_, err := conv.Convert(context.Background(), pdfFile("a.pdf"), format.PNG, nil, &Options{Quality: 2})
	assert.True(t, kiterrors.IsValidation(err))

	_, err = conv.Convert(context.Background(), pdfFile("a.pdf"), format.PNG, nil, &Options{PageSize: "A5"})
	assert.True(t, kiterrors.IsValidation(err))

	_, err = conv.Convert(context.Background(), pdfFile("a.pdf"), format.PNG, nil, &Options{Scale: 100})
	assert.True(t, kiterrors.IsValidation(err))
}

// ---- busy flag and cancellation ----

func TestConvert_BusyWhileInFlight(t *testing.T) {
	renderer := &fakePDFRenderer{
		doc:     &fakePDFDoc{pages: 1},
		started: make(chan struct{}),
		unblock: make(chan struct{}),
	}
	conv := newTestConverter(t, testCaps(renderer))

	type result struct {
		artifacts []Artifact
		err       error
	}
	done := make(chan result, 1)
	go func() {
		a, err := conv.Convert(context.Background(), pdfFile("slow.pdf"), format.PNG, nil, nil)
		done <- result{a, err}
	}()

	<-renderer.started
	assert.True(t, conv.Busy())

	// Second call on the same instance fails immediately, never queues.
	_, err := conv.Convert(context.Background(), pdfFile("other.pdf"), format.PNG, nil, nil)
	require.Error(t, err)
	assert.True(t, kiterrors.IsBusy(err))

	// The rejection must not disturb the in-flight call.
	close(renderer.unblock)
	first := <-done
	require.NoError(t, first.err)
	assert.Len(t, first.artifacts, 1)
	assert.False(t, conv.Busy())
}

func TestConvert_IdleAfterCompletionAndFailure(t *testing.T) {
	conv := newTestConverter(t, testCaps(&fakePDFRenderer{openErr: errors.New("boom")}))

	_, err := conv.Convert(context.Background(), pdfFile("a.pdf"), format.PNG, nil, nil)
	require.Error(t, err)
	assert.False(t, conv.Busy())

	// A subsequent call on the same instance proceeds past the busy check.
	_, err = conv.Convert(context.Background(), pdfFile("b.pdf"), format.PNG, nil, nil)
	require.Error(t, err)
	assert.True(t, kiterrors.IsPipeline(err), "second call reached the pipeline")
}

func TestCancel_ClearsBusyWithoutInterrupting(t *testing.T) {
	renderer := &fakePDFRenderer{
		doc:     &fakePDFDoc{pages: 1},
		started: make(chan struct{}),
		unblock: make(chan struct{}),
	}
	conv := newTestConverter(t, testCaps(renderer))

	done := make(chan error, 1)
	go func() {
		_, err := conv.Convert(context.Background(), pdfFile("slow.pdf"), format.PNG, nil, nil)
		done <- err
	}()

	<-renderer.started
	conv.Cancel()
	assert.False(t, conv.Busy(), "cancel clears the busy flag immediately")

	// The suspended stage still runs to completion.
	close(renderer.unblock)
	assert.NoError(t, <-done)
	assert.False(t, conv.Busy())
}

// ---- misc surface ----

func TestSupportedRoutes_MatchesMatrix(t *testing.T) {
	conv := newTestConverter(t, testCaps(nil))

	routes := conv.SupportedRoutes()
	assert.Equal(t, format.Routes(), routes)

	// Mutating the returned map must not affect the converter.
	delete(routes, format.PDF)
	assert.Contains(t, conv.SupportedRoutes(), format.PDF)
}

func TestNew_DefaultsWhenNil(t *testing.T) {
	conv := New(nil, nil)
	assert.NotNil(t, conv)
	assert.False(t, conv.Busy())
}
