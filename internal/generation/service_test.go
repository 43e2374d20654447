package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
	"genstudio/internal/providers/image"
	"genstudio/internal/providers/video"
)

const testImageModel = "server1-imagen4-ultra"

func newTestService(t *testing.T, deps testDeps) *Service {
	t.Helper()
	svc, err := NewService(Options{
		Credits:     deps.credits,
		Credentials: deps.credentials,
		Jobs:        deps.jobs,
		Reconciler:  deps.reconciler,
		Images:      deps.images,
		Videos:      deps.videos,
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type testDeps struct {
	credits     *fakeCredits
	credentials *fakeCredentials
	jobs        *fakeJobs
	reconciler  *fakeReconciler
	images      map[domain.Server]image.Generator
	videos      map[domain.Server]video.Provider
}

func defaultDeps() testDeps {
	return testDeps{
		credits: &fakeCredits{balance: 100},
		credentials: &fakeCredentials{key: &domain.APIKey{
			ID: "key-1", Provider: "fal_ai", Secret: "sk-test", Credits: 50, IsActive: true,
		}},
		jobs:       newFakeJobs(),
		reconciler: &fakeReconciler{},
		images: map[domain.Server]image.Generator{
			domain.Server1: &fakeImageGen{result: &image.Result{URL: "https://cdn.test/out.png"}},
		},
		videos: map[domain.Server]video.Provider{
			domain.Server1: &fakeVideoProvider{sub: &video.Submission{RequestID: "prov-1"}},
		},
	}
}

func TestGenerateImageSuccessSettlesOnce(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(t, deps)

	outcome, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID: testImageModel,
		Prompt:  "a lighthouse at dusk",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.OutputURL != "https://cdn.test/out.png" {
		t.Fatalf("output url = %q", outcome.OutputURL)
	}
	if outcome.CreditsUsed != 0.06 {
		t.Fatalf("credits used = %v, want the catalog price", outcome.CreditsUsed)
	}
	if len(deps.reconciler.settlements) != 1 {
		t.Fatalf("settlements = %d, want exactly one", len(deps.reconciler.settlements))
	}
	settlement := deps.reconciler.settlements[0]
	if settlement.Cost != 0.06 || settlement.APIKeyID != "key-1" || settlement.UserID != "user-1" {
		t.Fatalf("settlement = %+v", settlement)
	}
	if settlement.TxType != domain.TxImageGeneration {
		t.Fatalf("tx type = %q", settlement.TxType)
	}
	if got := deps.jobs.attached[outcome.JobID]; got != "key-1" {
		t.Fatalf("attached key = %q, want key-1", got)
	}
	if deps.credentials.gotProvider != "fal_ai" {
		t.Fatalf("credential provider = %q, want fal_ai", deps.credentials.gotProvider)
	}
}

func TestGenerateImageInsufficientCredits(t *testing.T) {
	deps := defaultDeps()
	deps.credits.balance = 0.01
	svc := newTestService(t, deps)

	_, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID: testImageModel,
		Prompt:  "anything",
	})
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want insufficient credits", err)
	}
	if len(deps.reconciler.settlements) != 0 {
		t.Fatalf("no settlement should happen, got %d", len(deps.reconciler.settlements))
	}
	if reason := deps.jobs.failed["job-1"]; reason != "Insufficient credits" {
		t.Fatalf("failure reason = %q", reason)
	}
}

func TestGenerateImageNoCredentialAvailable(t *testing.T) {
	deps := defaultDeps()
	deps.credentials.err = domain.ErrNoCredential
	svc := newTestService(t, deps)

	_, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID: testImageModel,
		Prompt:  "anything",
	})
	if !errors.Is(err, domain.ErrNoCredential) {
		t.Fatalf("err = %v, want no credential", err)
	}
	if reason := deps.jobs.failed["job-1"]; reason != "No available API key" {
		t.Fatalf("failure reason = %q", reason)
	}
	if len(deps.reconciler.settlements) != 0 {
		t.Fatalf("no settlement should happen")
	}
}

func TestGenerateImageProviderFailureWritesReason(t *testing.T) {
	deps := defaultDeps()
	deps.images[domain.Server1] = &fakeImageGen{
		err: errors.New("provider exploded"),
	}
	svc := newTestService(t, deps)

	_, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID: testImageModel,
		Prompt:  "anything",
	})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if len(deps.reconciler.settlements) != 0 {
		t.Fatalf("failed jobs must not settle")
	}
	if reason := deps.jobs.failed["job-1"]; reason == "" {
		t.Fatalf("failure reason should be recorded")
	}
}

func TestGenerateImagePollTimeoutMessage(t *testing.T) {
	deps := defaultDeps()
	deps.images[domain.Server1] = &fakeImageGen{err: domain.ErrPollTimeout}
	svc := newTestService(t, deps)

	_, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID: testImageModel,
		Prompt:  "anything",
	})
	if !errors.Is(err, domain.ErrPollTimeout) {
		t.Fatalf("err = %v, want poll timeout", err)
	}
	if reason := deps.jobs.failed["job-1"]; reason != "Generation timed out" {
		t.Fatalf("failure reason = %q", reason)
	}
}

func TestGenerateImageCostMismatchRejected(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(t, deps)

	_, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID:      testImageModel,
		Prompt:       "anything",
		DeclaredCost: 0.01,
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want invalid request", err)
	}
	if len(deps.jobs.created) != 0 {
		t.Fatalf("no row should be created for a rejected request")
	}
}

func TestGenerateImageExistingCompletedJobReturnsOutcome(t *testing.T) {
	deps := defaultDeps()
	generator := &fakeImageGen{result: &image.Result{URL: "https://cdn.test/fresh.png"}}
	deps.images[domain.Server1] = generator
	deps.jobs.existing = &domain.Generation{
		ID: "job-old", UserID: "user-1", Status: domain.StatusCompleted,
		OutputURL: "https://cdn.test/old.png", CreditsUsed: 0.06,
	}
	svc := newTestService(t, deps)

	outcome, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID:       testImageModel,
		Prompt:        "anything",
		ExistingJobID: "job-old",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.OutputURL != "https://cdn.test/old.png" || outcome.JobID != "job-old" {
		t.Fatalf("outcome = %+v, want the recorded result", outcome)
	}
	if generator.calls != 0 {
		t.Fatalf("provider should not be called for a completed job")
	}
	if len(deps.reconciler.settlements) != 0 {
		t.Fatalf("a completed job must not settle again")
	}
}

func TestGenerateImageUnknownModel(t *testing.T) {
	svc := newTestService(t, defaultDeps())
	_, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID: "does-not-exist",
		Prompt:  "anything",
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want invalid request", err)
	}
}

func TestSubmitVideoMarksProviderRequest(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(t, deps)

	outcome, err := svc.SubmitVideo(context.Background(), "user-1", VideoRequest{
		ModelID:         "veo-3.1-fast-s1",
		Prompt:          "waves rolling in",
		DurationSeconds: 8,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.OutputURL != "" {
		t.Fatalf("submission must not carry an output url yet")
	}
	if outcome.CreditsUsed != 0.8 {
		t.Fatalf("credits = %v, want the 8s no-audio price", outcome.CreditsUsed)
	}
	if got := deps.jobs.submitted[outcome.JobID]; got != "prov-1" {
		t.Fatalf("provider request id = %q, want prov-1", got)
	}
	if len(deps.reconciler.settlements) != 0 {
		t.Fatalf("submission must not settle")
	}
}

func TestSubmitVideoNotImplementedServer(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(t, deps)

	_, err := svc.SubmitVideo(context.Background(), "user-1", VideoRequest{
		ModelID: "veo-3.1-fast-s2",
		Prompt:  "anything",
	})
	if !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("err = %v, want not implemented", err)
	}
}

func TestSubmitVideoAudioPricing(t *testing.T) {
	deps := defaultDeps()
	svc := newTestService(t, deps)

	outcome, err := svc.SubmitVideo(context.Background(), "user-1", VideoRequest{
		ModelID:         "veo-3.1-fast-s1",
		Prompt:          "a marching band",
		DurationSeconds: 6,
		AudioEnabled:    true,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.CreditsUsed != 0.9 {
		t.Fatalf("credits = %v, want the 6s audio price", outcome.CreditsUsed)
	}
}

func TestRunVideoJobSettles(t *testing.T) {
	deps := defaultDeps()
	deps.videos[domain.Server1] = &fakeVideoProvider{
		result: &video.Result{URL: "https://cdn.test/clip.mp4"},
	}
	svc := newTestService(t, deps)

	err := svc.RunVideoJob(context.Background(), ClaimedVideoJob{
		ID: "job-7", UserID: "user-1", APIKeyID: "key-1",
		ModelName: "veo-3.1-fast", Server: domain.Server1,
		ProviderReqID: "prov-7", CreditsUsed: 0.8,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(deps.reconciler.settlements) != 1 {
		t.Fatalf("settlements = %d, want one", len(deps.reconciler.settlements))
	}
	settlement := deps.reconciler.settlements[0]
	if settlement.TxType != domain.TxVideoGeneration || settlement.OutputURL != "https://cdn.test/clip.mp4" {
		t.Fatalf("settlement = %+v", settlement)
	}
	if settlement.Cost != 0.8 {
		t.Fatalf("cost = %v, want the priced-at-submission value", settlement.Cost)
	}
}

func TestRunVideoJobTerminalFailureResolvesRow(t *testing.T) {
	deps := defaultDeps()
	deps.videos[domain.Server1] = &fakeVideoProvider{awaitErr: domain.ErrPollTimeout}
	svc := newTestService(t, deps)

	err := svc.RunVideoJob(context.Background(), ClaimedVideoJob{
		ID: "job-8", UserID: "user-1", APIKeyID: "key-1", Server: domain.Server1,
	})
	if !errors.Is(err, domain.ErrPollTimeout) {
		t.Fatalf("err = %v, want poll timeout", err)
	}
	if reason := deps.jobs.failed["job-8"]; reason != "Generation timed out" {
		t.Fatalf("failure reason = %q", reason)
	}
}

func TestRunVideoJobTransientErrorLeavesRowPending(t *testing.T) {
	deps := defaultDeps()
	deps.videos[domain.Server1] = &fakeVideoProvider{awaitErr: errors.New("connection refused")}
	svc := newTestService(t, deps)

	err := svc.RunVideoJob(context.Background(), ClaimedVideoJob{
		ID: "job-9", UserID: "user-1", APIKeyID: "key-1", Server: domain.Server1,
	})
	if err == nil {
		t.Fatalf("expected the transient error to surface")
	}
	if _, failed := deps.jobs.failed["job-9"]; failed {
		t.Fatalf("transient errors must leave the row claimable")
	}
}

func TestSettlementConflictFailsJob(t *testing.T) {
	deps := defaultDeps()
	deps.reconciler.err = domain.ErrReconciliationConflict
	svc := newTestService(t, deps)

	_, err := svc.GenerateImage(context.Background(), "user-1", ImageRequest{
		ModelID: testImageModel,
		Prompt:  "anything",
	})
	if !errors.Is(err, domain.ErrReconciliationConflict) {
		t.Fatalf("err = %v, want reconciliation conflict", err)
	}
	if reason := deps.jobs.failed["job-1"]; reason != "Credit reconciliation failed" {
		t.Fatalf("failure reason = %q", reason)
	}
}

type fakeCredits struct {
	balance float64
	ensured []string
}

func (f *fakeCredits) EnsureAccount(ctx context.Context, userID string) error {
	f.ensured = append(f.ensured, userID)
	return nil
}

func (f *fakeCredits) Balance(ctx context.Context, userID string) (float64, error) {
	return f.balance, nil
}

type fakeCredentials struct {
	key         *domain.APIKey
	err         error
	gotProvider string
	gotCost     float64
}

func (f *fakeCredentials) SelectBest(ctx context.Context, provider string, cost float64) (*domain.APIKey, error) {
	f.gotProvider = provider
	f.gotCost = cost
	if f.err != nil {
		return nil, f.err
	}
	return f.key, nil
}

func (f *fakeCredentials) Secret(ctx context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.key.Secret, nil
}

type fakeJobs struct {
	created   []*domain.Generation
	failed    map[string]string
	attached  map[string]string
	submitted map[string]string
	existing  *domain.Generation
	seq       int
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		failed:    map[string]string{},
		attached:  map[string]string{},
		submitted: map[string]string{},
	}
}

func (f *fakeJobs) nextID() string {
	f.seq++
	return "job-" + string(rune('0'+f.seq))
}

func (f *fakeJobs) CreateImage(ctx context.Context, gen *domain.Generation) (string, error) {
	f.created = append(f.created, gen)
	return f.nextID(), nil
}

func (f *fakeJobs) CreateVideo(ctx context.Context, gen *domain.Generation) (string, error) {
	f.created = append(f.created, gen)
	return f.nextID(), nil
}

func (f *fakeJobs) AttachKey(ctx context.Context, kind domain.GenerationKind, jobID, apiKeyID string) error {
	f.attached[jobID] = apiKeyID
	return nil
}

func (f *fakeJobs) MarkVideoSubmitted(ctx context.Context, jobID, providerRequestID string) error {
	f.submitted[jobID] = providerRequestID
	return nil
}

func (f *fakeJobs) Fail(ctx context.Context, kind domain.GenerationKind, jobID, reason string) error {
	f.failed[jobID] = reason
	return nil
}

func (f *fakeJobs) ImageByID(ctx context.Context, jobID, userID string) (*domain.Generation, error) {
	if f.existing != nil && f.existing.ID == jobID && f.existing.UserID == userID {
		return f.existing, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeJobs) VideoByID(ctx context.Context, jobID, userID string) (*domain.Generation, error) {
	return f.ImageByID(ctx, jobID, userID)
}

type fakeReconciler struct {
	settlements []Settlement
	err         error
}

func (f *fakeReconciler) Settle(ctx context.Context, s Settlement) error {
	if f.err != nil {
		return f.err
	}
	f.settlements = append(f.settlements, s)
	return nil
}

type fakeImageGen struct {
	result *image.Result
	err    error
	got    image.GenerateRequest
	calls  int
}

func (f *fakeImageGen) Generate(ctx context.Context, req image.GenerateRequest) (*image.Result, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeVideoProvider struct {
	sub       *video.Submission
	submitErr error
	result    *video.Result
	awaitErr  error
}

func (f *fakeVideoProvider) Submit(ctx context.Context, req video.GenerateRequest) (*video.Submission, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.sub, nil
}

func (f *fakeVideoProvider) Await(ctx context.Context, apiKey string, resume video.Resume) (*video.Result, error) {
	if f.awaitErr != nil {
		return nil, f.awaitErr
	}
	return f.result, nil
}
