package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/ironsheep/textmap-mcp/internal/ocr"
)

type fakePermission struct {
	granted bool
	err     error
	calls   int
}

func (f *fakePermission) RequestCameraPermission(ctx context.Context) (bool, error) {
	f.calls++
	return f.granted, f.err
}

type fakePicker struct {
	mu    sync.Mutex
	sel   Selection
	err   error
	calls int
	opts  []PickOptions
}

func (f *fakePicker) PickImage(ctx context.Context, opts PickOptions) (Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.opts = append(f.opts, opts)
	return f.sel, f.err
}

func (f *fakePicker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCamera struct {
	sel   Selection
	err   error
	calls int
	opts  []CaptureOptions
}

func (f *fakeCamera) CaptureImage(ctx context.Context, opts CaptureOptions) (Selection, error) {
	f.calls++
	f.opts = append(f.opts, opts)
	return f.sel, f.err
}

type alert struct {
	title, message string
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []alert
}

func (f *fakeNotifier) ShowMessage(ctx context.Context, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert{title, message})
	return nil
}

func (f *fakeNotifier) all() []alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]alert(nil), f.alerts...)
}

type recognizeCall struct {
	ref string
}

// fakeRecognizer returns results keyed by image reference.
type fakeRecognizer struct {
	mu      sync.Mutex
	results map[string]*ocr.Result
	errs    map[string]error
	calls   []recognizeCall
	during  func(ctx context.Context)
}

func (f *fakeRecognizer) Recognize(ctx context.Context, ref string) (*ocr.Result, error) {
	if f.during != nil {
		f.during(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recognizeCall{ref})
	if err := f.errs[ref]; err != nil {
		return nil, err
	}
	return f.results[ref], nil
}

func (f *fakeRecognizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func blocks(texts ...string) *ocr.Result {
	r := ocr.Empty()
	for _, t := range texts {
		r.Blocks = append(r.Blocks, ocr.TextBlock{Text: t})
	}
	return r
}

func blockTexts(s State) []string {
	var out []string
	for _, b := range s.Blocks() {
		out = append(out, b.Text)
	}
	return out
}

type fixture struct {
	gallery    *fakePicker
	camera     *fakeCamera
	recognizer *fakeRecognizer
	notifier   *fakeNotifier
}

func newFixture() *fixture {
	return &fixture{
		gallery:    &fakePicker{},
		camera:     &fakeCamera{},
		recognizer: &fakeRecognizer{results: map[string]*ocr.Result{}, errs: map[string]error{}},
		notifier:   &fakeNotifier{},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Gallery:    f.gallery,
		Camera:     f.camera,
		Recognizer: f.recognizer,
		Notifier:   f.notifier,
	}
}

func TestNew_InitialState(t *testing.T) {
	c := New(newFixture().deps(), true)
	s := c.State()

	if s.ImageRef != "" || s.Loading || s.Result != nil {
		t.Errorf("initial state not empty: %+v", s)
	}
	if !s.CameraPermission {
		t.Error("CameraPermission: got false, want true")
	}
	if s.Phase() != PhaseIdle {
		t.Errorf("Phase: got %s, want idle", s.Phase())
	}
}

func TestStart_Permission(t *testing.T) {
	tests := []struct {
		name string
		perm PermissionService
		want bool
	}{
		{"granted", &fakePermission{granted: true}, true},
		{"denied", &fakePermission{granted: false}, false},
		{"error counts as denied", &fakePermission{granted: true, err: errors.New("dialog crashed")}, false},
		{"no service", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Start(context.Background(), tt.perm, newFixture().deps())
			if got := c.State().CameraPermission; got != tt.want {
				t.Errorf("CameraPermission: got %v, want %v", got, tt.want)
			}
			if fp, ok := tt.perm.(*fakePermission); ok && fp.calls != 1 {
				t.Errorf("permission requested %d times, want 1", fp.calls)
			}
		})
	}
}

func TestCaptureFromCamera_Success(t *testing.T) {
	f := newFixture()
	f.camera.sel = Selection{Ref: "img://1"}
	f.recognizer.results["img://1"] = blocks("Hello", "World")
	c := New(f.deps(), true)

	if err := c.CaptureFromCamera(context.Background()); err != nil {
		t.Fatalf("CaptureFromCamera failed: %v", err)
	}

	s := c.State()
	if s.ImageRef != "img://1" {
		t.Errorf("ImageRef: got %q, want img://1", s.ImageRef)
	}
	if got := blockTexts(s); !reflect.DeepEqual(got, []string{"Hello", "World"}) {
		t.Errorf("blocks: got %v, want [Hello World]", got)
	}
	if s.Loading {
		t.Error("Loading should be false after recognition")
	}
	if s.Phase() != PhaseResultReady {
		t.Errorf("Phase: got %s, want result_ready", s.Phase())
	}

	want := []CaptureOptions{{AllowsEditing: true, Quality: 1}}
	if !reflect.DeepEqual(f.camera.opts, want) {
		t.Errorf("camera options: got %+v, want %+v", f.camera.opts, want)
	}
	if len(f.notifier.all()) != 0 {
		t.Errorf("unexpected alerts: %+v", f.notifier.all())
	}
}

func TestCaptureFromCamera_PermissionDenied(t *testing.T) {
	f := newFixture()
	f.camera.sel = Selection{Ref: "img://1"}
	c := New(f.deps(), false)

	err := c.CaptureFromCamera(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("error: got %v, want ErrPermissionDenied", err)
	}

	if f.camera.calls != 0 {
		t.Errorf("camera called %d times, want 0", f.camera.calls)
	}
	alerts := f.notifier.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].title != TitlePermissionDenied || alerts[0].message != MessagePermissionDenied {
		t.Errorf("alert: got %+v", alerts[0])
	}
	if c.State().ImageRef != "" {
		t.Error("state changed after denied capture")
	}

	// The flow released its guard.
	if err := c.CaptureFromCamera(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("second attempt: got %v, want ErrPermissionDenied", err)
	}
}

func TestImportFromGallery_Success(t *testing.T) {
	f := newFixture()
	f.gallery.sel = Selection{Ref: "/photos/receipt.jpg"}
	f.recognizer.results["/photos/receipt.jpg"] = blocks("TOTAL 12.00")
	c := New(f.deps(), false)

	if err := c.ImportFromGallery(context.Background()); err != nil {
		t.Fatalf("ImportFromGallery failed: %v", err)
	}

	s := c.State()
	if s.ImageRef != "/photos/receipt.jpg" {
		t.Errorf("ImageRef: got %q", s.ImageRef)
	}
	if got := blockTexts(s); !reflect.DeepEqual(got, []string{"TOTAL 12.00"}) {
		t.Errorf("blocks: got %v", got)
	}

	want := []PickOptions{{MediaType: MediaImages, AllowsEditing: true, Quality: 1}}
	if !reflect.DeepEqual(f.gallery.opts, want) {
		t.Errorf("picker options: got %+v, want %+v", f.gallery.opts, want)
	}
}

func TestImportFromGallery_Cancelled(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		err  error
	}{
		{"cancelled selection", Selection{Cancelled: true}, nil},
		{"cancel error", Selection{}, ErrUserCancelled},
		{"wrapped cancel error", Selection{}, errors.Join(errors.New("dismissed"), ErrUserCancelled)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.gallery.sel = Selection{Ref: "img://first"}
			f.recognizer.results["img://first"] = blocks("Before")
			c := New(f.deps(), true)
			if err := c.ImportFromGallery(context.Background()); err != nil {
				t.Fatalf("setup import failed: %v", err)
			}
			before := c.State()

			f.gallery.sel, f.gallery.err = tt.sel, tt.err
			err := c.ImportFromGallery(context.Background())
			if !errors.Is(err, ErrUserCancelled) {
				t.Fatalf("error: got %v, want ErrUserCancelled", err)
			}

			if after := c.State(); !reflect.DeepEqual(after, before) {
				t.Errorf("state changed on cancel:\n before %+v\n after  %+v", before, after)
			}
			if f.recognizer.callCount() != 1 {
				t.Errorf("recognizer called %d times, want 1 (setup only)", f.recognizer.callCount())
			}
			if len(f.notifier.all()) != 0 {
				t.Errorf("cancel produced alerts: %+v", f.notifier.all())
			}
		})
	}
}

func TestImportFromGallery_CancelledFromIdle(t *testing.T) {
	f := newFixture()
	f.gallery.sel = Selection{Cancelled: true}
	c := New(f.deps(), true)
	before := c.State()

	if err := c.ImportFromGallery(context.Background()); !errors.Is(err, ErrUserCancelled) {
		t.Fatalf("error: got %v, want ErrUserCancelled", err)
	}
	if after := c.State(); !reflect.DeepEqual(after, before) {
		t.Errorf("state changed: %+v", after)
	}
	if f.recognizer.callCount() != 0 {
		t.Errorf("recognizer called %d times, want 0", f.recognizer.callCount())
	}
}

func TestCaptureFromCamera_Cancelled(t *testing.T) {
	f := newFixture()
	f.camera.sel = Selection{Cancelled: true}
	c := New(f.deps(), true)

	if err := c.CaptureFromCamera(context.Background()); !errors.Is(err, ErrUserCancelled) {
		t.Fatalf("error: got %v, want ErrUserCancelled", err)
	}
	if c.State().ImageRef != "" || c.State().Result != nil {
		t.Errorf("state changed: %+v", c.State())
	}
	if f.recognizer.callCount() != 0 {
		t.Error("recognizer should not be called")
	}
}

func TestRecognitionFailure(t *testing.T) {
	f := newFixture()
	f.gallery.sel = Selection{Ref: "img://2"}
	f.recognizer.errs["img://2"] = errors.New("unsupported format")
	c := New(f.deps(), true)

	err := c.ImportFromGallery(context.Background())
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("error: got %v, want ErrRecognitionFailed", err)
	}

	s := c.State()
	if s.ImageRef != "img://2" {
		t.Errorf("ImageRef: got %q, want img://2 (image stays set)", s.ImageRef)
	}
	if s.Result == nil || len(s.Result.Blocks) != 0 {
		t.Errorf("Result: got %+v, want empty", s.Result)
	}
	if s.Loading {
		t.Error("Loading should be false after failure")
	}
	if s.Phase() != PhaseResultReady {
		t.Errorf("Phase: got %s, want result_ready", s.Phase())
	}

	alerts := f.notifier.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].title != TitleError || alerts[0].message != MessageRecognitionFailed {
		t.Errorf("alert: got %+v", alerts[0])
	}
}

func TestRecognitionFailure_ReplacesPreviousResult(t *testing.T) {
	f := newFixture()
	f.gallery.sel = Selection{Ref: "img://good"}
	f.recognizer.results["img://good"] = blocks("Old")
	c := New(f.deps(), true)
	if err := c.ImportFromGallery(context.Background()); err != nil {
		t.Fatalf("setup import failed: %v", err)
	}

	f.gallery.sel = Selection{Ref: "img://bad"}
	f.recognizer.errs["img://bad"] = errors.New("internal failure")
	if err := c.ImportFromGallery(context.Background()); !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("error: got %v, want ErrRecognitionFailed", err)
	}

	if got := blockTexts(c.State()); len(got) != 0 {
		t.Errorf("old blocks survived a failed recognition: %v", got)
	}
}

func TestRecognize_NilResultIsEmpty(t *testing.T) {
	f := newFixture()
	f.gallery.sel = Selection{Ref: "img://blank"}
	c := New(f.deps(), true)

	if err := c.ImportFromGallery(context.Background()); err != nil {
		t.Fatalf("ImportFromGallery failed: %v", err)
	}
	if r := c.State().Result; r == nil || len(r.Blocks) != 0 {
		t.Errorf("Result: got %+v, want empty", r)
	}
}

func TestLoading_TrueOnlyDuringRecognition(t *testing.T) {
	f := newFixture()
	f.gallery.sel = Selection{Ref: "img://3"}
	c := New(f.deps(), true)

	var sawLoading bool
	f.recognizer.during = func(ctx context.Context) {
		sawLoading = c.State().Loading
	}

	if c.State().Loading {
		t.Fatal("Loading true before any request")
	}
	if err := c.ImportFromGallery(context.Background()); err != nil {
		t.Fatalf("ImportFromGallery failed: %v", err)
	}
	if !sawLoading {
		t.Error("Loading was false while the recognizer ran")
	}
	if c.State().Loading {
		t.Error("Loading still true after recognition")
	}
}

func TestRecognize_IgnoresCallerCancellation(t *testing.T) {
	f := newFixture()
	f.gallery.sel = Selection{Ref: "img://4"}
	f.recognizer.results["img://4"] = blocks("Done")
	c := New(f.deps(), true)

	ctx, cancel := context.WithCancel(context.Background())
	var recognizeCtxErr error
	f.recognizer.during = func(rctx context.Context) {
		cancel()
		recognizeCtxErr = rctx.Err()
	}

	if err := c.ImportFromGallery(ctx); err != nil {
		t.Fatalf("ImportFromGallery failed: %v", err)
	}
	if recognizeCtxErr != nil {
		t.Errorf("recognizer context was cancelled: %v", recognizeCtxErr)
	}
	if got := blockTexts(c.State()); !reflect.DeepEqual(got, []string{"Done"}) {
		t.Errorf("blocks: got %v", got)
	}
}

func TestOverlappingSelectionRejected(t *testing.T) {
	f := newFixture()
	f.gallery.sel = Selection{Ref: "img://slow"}
	f.camera.sel = Selection{Ref: "img://other"}
	c := New(f.deps(), true)

	started := make(chan struct{})
	release := make(chan struct{})
	f.recognizer.during = func(ctx context.Context) {
		close(started)
		<-release
	}

	done := make(chan error, 1)
	go func() { done <- c.ImportFromGallery(context.Background()) }()
	<-started

	if err := c.ImportFromGallery(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second import: got %v, want ErrBusy", err)
	}
	if err := c.CaptureFromCamera(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("capture during import: got %v, want ErrBusy", err)
	}
	if f.gallery.callCount() != 1 || f.camera.calls != 0 {
		t.Errorf("collaborators called during busy flow: gallery=%d camera=%d", f.gallery.callCount(), f.camera.calls)
	}
	if !c.State().Loading {
		t.Error("Loading should be true while the first recognition runs")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	f.recognizer.during = nil
	if err := c.CaptureFromCamera(context.Background()); err != nil {
		t.Errorf("capture after first flow finished: %v", err)
	}
	if c.State().ImageRef != "img://other" {
		t.Errorf("ImageRef: got %q, want img://other", c.State().ImageRef)
	}
}

func TestPickerFailure(t *testing.T) {
	f := newFixture()
	f.gallery.err = errors.New("not an image")
	c := New(f.deps(), true)

	err := c.ImportFromGallery(context.Background())
	if !errors.Is(err, ErrPickerFailed) {
		t.Fatalf("error: got %v, want ErrPickerFailed", err)
	}
	if c.State().ImageRef != "" {
		t.Error("state changed after picker failure")
	}
	alerts := f.notifier.all()
	if len(alerts) != 1 || alerts[0].message != MessagePickerFailed {
		t.Errorf("alerts: got %+v", alerts)
	}
	if f.recognizer.callCount() != 0 {
		t.Error("recognizer should not be called")
	}
}

func TestMissingCollaborators(t *testing.T) {
	c := New(Deps{}, true)

	if err := c.ImportFromGallery(context.Background()); !errors.Is(err, ErrPickerFailed) {
		t.Errorf("import without gallery: got %v, want ErrPickerFailed", err)
	}
	if err := c.CaptureFromCamera(context.Background()); !errors.Is(err, ErrPickerFailed) {
		t.Errorf("capture without camera: got %v, want ErrPickerFailed", err)
	}

	c = New(Deps{Gallery: &fakePicker{sel: Selection{Ref: "img://x"}}}, true)
	if err := c.ImportFromGallery(context.Background()); !errors.Is(err, ErrRecognitionFailed) {
		t.Errorf("import without recognizer: got %v, want ErrRecognitionFailed", err)
	}
}

type fakeReleaser struct {
	refs []string
}

func (f *fakeReleaser) Release(ref string) {
	f.refs = append(f.refs, ref)
}

func TestSelectionReleasesPreviousImage(t *testing.T) {
	f := newFixture()
	rel := &fakeReleaser{}
	deps := f.deps()
	deps.Releaser = rel
	c := New(deps, true)
	ctx := context.Background()

	f.gallery.sel = Selection{Ref: "/photos/a.jpg"}
	if err := c.ImportFromGallery(ctx); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	if len(rel.refs) != 0 {
		t.Fatalf("first selection released %v", rel.refs)
	}

	// Same image again: nothing is superseded.
	if err := c.ImportFromGallery(ctx); err != nil {
		t.Fatalf("repeat import failed: %v", err)
	}

	// A cancel keeps the current image.
	f.camera.sel = Selection{Cancelled: true}
	if err := c.CaptureFromCamera(ctx); !errors.Is(err, ErrUserCancelled) {
		t.Fatalf("error: got %v, want ErrUserCancelled", err)
	}

	// Recognition failure still replaces the image.
	f.camera.sel = Selection{Ref: "/work/capture-1.jpg"}
	f.recognizer.errs["/work/capture-1.jpg"] = errors.New("engine crashed")
	if err := c.CaptureFromCamera(ctx); !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("error: got %v, want ErrRecognitionFailed", err)
	}

	f.gallery.sel = Selection{Ref: "/photos/b.jpg"}
	if err := c.ImportFromGallery(ctx); err != nil {
		t.Fatalf("last import failed: %v", err)
	}

	want := []string{"/photos/a.jpg", "/work/capture-1.jpg"}
	if !reflect.DeepEqual(rel.refs, want) {
		t.Errorf("released: got %v, want %v", rel.refs, want)
	}
}
