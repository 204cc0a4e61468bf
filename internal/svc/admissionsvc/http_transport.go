package admissionsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/mkrupp/mediagate/internal/domain"
	context_ "github.com/mkrupp/mediagate/internal/infra/context"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/infra/mediatype"
	http_ "github.com/mkrupp/mediagate/internal/infra/transport/http"
	"github.com/mkrupp/mediagate/internal/repo/decision"
	"github.com/mkrupp/mediagate/internal/util/encoding"
)

// Form fields that override the configured policy for a single batch.
const (
	FormMaxVideoWidth        = "maxVideoWidth"
	FormMaxVideoHeight       = "maxVideoHeight"
	FormBlockOnVideoMetaFail = "blockOnVideoMetaFail"
)

// ErrInvalidLimit is returned for a malformed batch listing limit.
var ErrInvalidLimit = errors.New("invalid limit")

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// MultipartFileName is the form field name for file uploads.
	// Default is "upload".
	MultipartFileName string `env:"MULTIPART_FILE_NAME" default:"upload"`

	// URLBatchIDParam is the URL parameter name for batch IDs.
	// Default is "batch_id".
	URLBatchIDParam string `env:"URL_BATCH_ID_PARAM" default:"batch_id"`

	// MultipartFormMaxMemory is the maximum allowed memory for multipart form uploads.
	// Larger parts are spooled to temporary files.
	// Default is 10MB.
	MultipartFormMaxMemory int64 `env:"MULTIPART_FORM_MAX_SIZE" default:"10485760"`

	// MaxUploadSize is the maximum size of a whole admission request body.
	// Default is 1GB.
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" default:"1073741824"`

	// RecentLimit is the default and maximum number of batches listed.
	// Default is 20.
	RecentLimit int `env:"RECENT_LIMIT" default:"20"`
}

// HTTPTransport handles HTTP requests for the admission service.
// It provides endpoints for deciding upload batches and reading the audit trail.
type HTTPTransport struct {
	admissionSvc AdmissionService
	decisionRepo decision.Repository
	log          logging.Logger
	cfg          HTTPTransportConfig
	now          func() time.Time
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// Every decided batch is recorded in decisionRepo.
func NewHTTPTransport(
	admissionSvc AdmissionService,
	decisionRepo decision.Repository,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	return &HTTPTransport{
		admissionSvc: admissionSvc,
		decisionRepo: decisionRepo,
		log:          logging.GetLogger("svc.admissionsvc.http_transport"),
		cfg:          cfg,
		now:          time.Now,
	}
}

// ServeHTTP implements http.Handler and sets up routes for the admission service endpoints:
// - POST /admissions: Decide an upload batch
// - GET /admissions: List recent batches
// - GET /admissions/{batch-id}: Fetch a recorded batch by ID.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admissions", ht.HandleAdmit)
	mux.HandleFunc("GET /admissions", ht.HandleList)
	mux.HandleFunc(fmt.Sprintf("GET /admissions/{%s}", ht.cfg.URLBatchIDParam), ht.HandleFetch)

	mux.ServeHTTP(w, r)
}

// HandleAdmit processes admission requests.
// Expects a multipart form with one or more file parts under MultipartFileName.
func (ht *HTTPTransport) HandleAdmit(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleAdmit(w, r)
}

//nolint:funlen,cyclop
func (ht *HTTPTransport) handleAdmit(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
	ctx := r.Context()

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "admission failed", "error", err)
		} else {
			log.DebugContext(ctx, "admission decided")
		}
	}()

	r.Body = http.MaxBytesReader(w, r.Body, ht.cfg.MaxUploadSize)

	if err := r.ParseMultipartForm(ht.cfg.MultipartFormMaxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		}

		return fmt.Errorf("parse multipart form: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	fileHeaders := r.MultipartForm.File[ht.cfg.MultipartFileName]
	if len(fileHeaders) == 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return domain.ErrNoMultipartFiles
	}

	policy, err := ht.policyFromForm(r.MultipartForm.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return fmt.Errorf("policy from form: %w", err)
	}

	files, err := ht.readFiles(ctx, fileHeaders)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("read files: %w", err)
	}

	batchID, err := newBatchID()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("new batch ID: %w", err)
	}

	ctx = context_.WithBatchID(ctx, batchID.String())

	decisions, err := ht.admissionSvc.Decide(ctx, files, policy)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)

		return fmt.Errorf("decide: %w", err)
	}

	record := domain.NewBatchRecord(batchID, ht.now().UTC(), policy, decisions)
	if err := ht.decisionRepo.Record(ctx, record); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("record: %w", err)
	}

	allowed, blocked := record.Counts()
	log.InfoContext(ctx, "batch recorded", "allowed", allowed, "blocked", blocked)

	return writeJSON(w, http.StatusOK, domain.NewAdmissionResponse(batchID, domain.Partition(decisions)))
}

func (ht *HTTPTransport) policyFromForm(values map[string][]string) (domain.ValidationPolicy, error) {
	policy := ht.admissionSvc.Policy()

	formValue := func(key string) (string, bool) {
		if v := values[key]; len(v) > 0 && v[0] != "" {
			return v[0], true
		}

		return "", false
	}

	var errs []error

	if v, ok := formValue(FormMaxVideoWidth); ok {
		width, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", FormMaxVideoWidth, err))
		}

		policy.MaxWidth = width
	}

	if v, ok := formValue(FormMaxVideoHeight); ok {
		height, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", FormMaxVideoHeight, err))
		}

		policy.MaxHeight = height
	}

	if v, ok := formValue(FormBlockOnVideoMetaFail); ok {
		block, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", FormBlockOnVideoMetaFail, err))
		}

		policy.SetBlockOnProbeFailure(block)
	}

	if len(errs) > 0 {
		return domain.ValidationPolicy{}, errors.Join(append([]error{domain.ErrInvalidPolicy}, errs...)...)
	}

	if err := policy.Validate(); err != nil {
		return domain.ValidationPolicy{}, err //nolint:wrapcheck
	}

	return policy, nil
}

func (ht *HTTPTransport) readFiles(ctx context.Context, fileHeaders []*multipart.FileHeader) ([]domain.MediaFile, error) {
	files := make([]domain.MediaFile, 0, len(fileHeaders))

	var errs []error

	for _, fileHeader := range fileHeaders {
		data, err := readFile(fileHeader)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		mimeType := mediatype.Detect(fileHeader.Header.Get("Content-Type"), data)

		ht.log.DebugContext(ctx, "file received", logging.Group("file",
			"name", fileHeader.Filename,
			"type", mimeType,
			"size", humanize.Bytes(uint64(len(data))),
		))

		files = append(files, domain.NewMediaFile(fileHeader.Filename, mimeType, data))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return files, nil
}

func readFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fileHeader.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileHeader.Filename, err)
	}

	return data, nil
}

// HandleFetch returns the recorded decisions of one batch.
// Expects the batch ID as a URL parameter matching URLBatchIDParam config.
func (ht *HTTPTransport) HandleFetch(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleFetch(w, r)
}

func (ht *HTTPTransport) handleFetch(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "batch fetch failed", "error", err)
		} else {
			log.DebugContext(ctx, "batch fetched")
		}
	}(r.Context())

	batchID := r.PathValue(ht.cfg.URLBatchIDParam)
	if batchID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return domain.ErrNoBatchID
	}

	batchID = encoding.NormalizeCrockfordB32LC(batchID)
	log = log.With(logging.Group("batch", "id", batchID))

	batch, err := ht.decisionRepo.Fetch(r.Context(), domain.BatchID(batchID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBatchNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		default:
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("fetch: %w", err)
	}

	return writeJSON(w, http.StatusOK, batch)
}

// HandleList returns the most recent batches without their decisions.
// An optional "limit" query parameter lowers the configured RecentLimit.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleList(w, r)
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "batch list failed", "error", err)
		} else {
			log.DebugContext(ctx, "batches listed")
		}
	}(r.Context())

	limit := ht.cfg.RecentLimit

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit_, err := strconv.Atoi(limitStr)
		if err != nil || limit_ < 1 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

			return fmt.Errorf("%w: %q", ErrInvalidLimit, limitStr)
		}

		limit = min(limit_, ht.cfg.RecentLimit)
	}

	batches, err := ht.decisionRepo.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("recent: %w", err)
	}

	resp := make([]domain.BatchSummaryResponse, 0, len(batches))
	for _, batch := range batches {
		resp = append(resp, domain.BatchSummaryResponse{
			BatchID:   batch.ID,
			CreatedAt: batch.CreatedAt,
			Policy:    batch.Policy,
		})
	}

	return writeJSON(w, http.StatusOK, resp)
}

func newBatchID() (domain.BatchID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("uuid v7: %w", err)
	}

	return domain.BatchID(encoding.EncodeCrockfordB32LC(id[:])), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}
