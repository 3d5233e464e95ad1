package review

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"subprocess-review-backend/internal/models"
	"subprocess-review-backend/internal/repository"
	"subprocess-review-backend/internal/services/paging"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Config carries the tunables the dashboard exposes to admins via env.
type Config struct {
	ChunkSize      int
	PageSize       int
	AllowedActions []string
	DeniedTerms    []string
}

type Service struct {
	subprocessRepo *repository.SubprocessRepository
	statusRepo     *repository.StatusRepository
	historyRepo    *repository.HistoryRepository
	userRepo       *repository.UserRepository
	db             *gorm.DB
	cfg            Config

	// Batch cache: membership only changes on import, so the grouped view
	// is rebuilt then and only then. Statuses are always read fresh.
	mu      sync.RWMutex
	batches []BatchView
	loaded  bool
}

func NewService(
	subprocessRepo *repository.SubprocessRepository,
	statusRepo *repository.StatusRepository,
	historyRepo *repository.HistoryRepository,
	userRepo *repository.UserRepository,
	cfg Config,
) *Service {
	return &Service{
		subprocessRepo: subprocessRepo,
		statusRepo:     statusRepo,
		historyRepo:    historyRepo,
		userRepo:       userRepo,
		db:             subprocessRepo.DB(),
		cfg:            cfg,
	}
}

// RecordView is one imported row as the dashboard renders it.
type RecordView struct {
	ExternalID string            `json:"id"`
	Fields     map[string]string `json:"fields"`
}

// BatchView is one reviewable batch without its lifecycle state; state is
// joined in per request.
type BatchView struct {
	BatchID    int          `json:"batch_id"`
	Fornecedor string       `json:"fornecedor"`
	Pag        string       `json:"pag"`
	TotalValue float64      `json:"total_value"`
	Records    []RecordView `json:"records"`
}

// PageBatch is a batch plus its current status, ready for rendering.
type PageBatch struct {
	BatchView
	State     string     `json:"state"`
	Holder    *string    `json:"holder,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// PageView is one rendered dashboard page: its batches plus the icon
// strip for the whole pagination bar.
type PageView struct {
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	PageIcons  []string    `json:"page_icons"`
	Batches    []PageBatch `json:"batches"`
}

// Batches returns the cached grouped view, loading it from storage on
// first use.
func (s *Service) Batches() ([]BatchView, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.batches, nil
	}
	s.mu.RUnlock()

	return s.reloadBatches()
}

func (s *Service) reloadBatches() ([]BatchView, error) {
	rows, err := s.subprocessRepo.GetAll()
	if err != nil {
		return nil, err
	}

	var batches []BatchView
	for _, row := range rows {
		fields := map[string]string{}
		if len(row.Dados) > 0 {
			if err := json.Unmarshal(row.Dados, &fields); err != nil {
				log.Printf("batch %d: unreadable payload for row %s: %v", row.BatchID, row.ID, err)
			}
		}

		n := len(batches)
		if n == 0 || batches[n-1].BatchID != row.BatchID {
			batches = append(batches, BatchView{
				BatchID:    row.BatchID,
				Fornecedor: row.Fornecedor,
				Pag:        row.Pag,
			})
			n++
		}
		batches[n-1].Records = append(batches[n-1].Records, RecordView{
			ExternalID: row.ExternalID,
			Fields:     fields,
		})
		batches[n-1].TotalValue += parseValor(fields["valor"])
	}

	s.mu.Lock()
	s.batches = batches
	s.loaded = true
	s.mu.Unlock()

	return batches, nil
}

func (s *Service) invalidateBatches() {
	s.mu.Lock()
	s.loaded = false
	s.batches = nil
	s.mu.Unlock()
}

func (s *Service) findBatch(batchID int) (*BatchView, error) {
	batches, err := s.Batches()
	if err != nil {
		return nil, err
	}
	for i := range batches {
		if batches[i].BatchID == batchID {
			return &batches[i], nil
		}
	}
	return nil, ErrUnknownBatch
}

// Page assembles one dashboard page. An optional search term keeps only
// batches with a matching member row; batch membership itself never
// changes, so a batch either appears whole or not at all.
func (s *Service) Page(page int, search string) (*PageView, error) {
	batches, err := s.Batches()
	if err != nil {
		return nil, err
	}

	if search != "" {
		var filtered []BatchView
		for _, b := range batches {
			if batchMatches(b, search) {
				filtered = append(filtered, b)
			}
		}
		batches = filtered
	}

	statuses, err := s.statusRepo.GetAll()
	if err != nil {
		return nil, err
	}

	totalPages := paging.TotalPages(len(batches), s.cfg.PageSize)
	page = paging.Clamp(page, totalPages)
	start, end := paging.Bounds(page, len(batches), s.cfg.PageSize)

	// Icon strip across every page of the nav bar
	icons := make([]string, 0, totalPages)
	for p := 1; p <= totalPages; p++ {
		ps, pe := paging.Bounds(p, len(batches), s.cfg.PageSize)
		states := make([]string, 0, pe-ps)
		for _, b := range batches[ps:pe] {
			states = append(states, stateOf(statuses, b.BatchID))
		}
		icons = append(icons, paging.Icon(states))
	}

	view := &PageView{
		Page:       page,
		TotalPages: totalPages,
		PageIcons:  icons,
		Batches:    make([]PageBatch, 0, end-start),
	}
	for _, b := range batches[start:end] {
		pb := PageBatch{BatchView: b, State: stateOf(statuses, b.BatchID)}
		if st, ok := statuses[b.BatchID]; ok {
			pb.Holder = st.Holder
			pb.StartedAt = st.StartedAt
		}
		view.Batches = append(view.Batches, pb)
	}

	return view, nil
}

func stateOf(statuses map[int]models.BatchStatus, batchID int) string {
	if st, ok := statuses[batchID]; ok {
		return st.State
	}
	return models.StatePending
}

func batchMatches(b BatchView, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, r := range b.Records {
		for _, key := range []string{"fornecedor", "sol", "empenho", "id"} {
			if strings.Contains(strings.ToLower(r.Fields[key]), term) {
				return true
			}
		}
	}
	return false
}

// Status returns the lifecycle record for a batch, defaulting to pending
// when none has been written yet.
func (s *Service) Status(batchID int) (*models.BatchStatus, error) {
	status, err := s.statusRepo.Get(batchID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return &models.BatchStatus{BatchID: batchID, State: models.StatePending}, nil
	}
	return status, nil
}

// Start claims a pending batch for user. The conditional update in the
// repository guarantees at most one winner under concurrent starts.
func (s *Service) Start(batchID int, user string) error {
	if _, err := s.findBatch(batchID); err != nil {
		return err
	}
	if err := s.statusRepo.EnsurePending(batchID); err != nil {
		return err
	}
	ok, err := s.statusRepo.TryStart(batchID, user, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	log.Printf("batch %d started by %s", batchID, user)
	return nil
}

// Release puts an in-progress batch back to pending. Only the holder may
// release; anyone else gets ErrNotHolder and the state is untouched.
func (s *Service) Release(batchID int, user string) error {
	if _, err := s.findBatch(batchID); err != nil {
		return err
	}
	ok, err := s.statusRepo.TryRelease(batchID, user)
	if err != nil {
		return err
	}
	if !ok {
		return rejectionFor(s.statusRepo, batchID, user)
	}
	log.Printf("batch %d released by %s", batchID, user)
	return nil
}

// Finish completes an in-progress batch held by user. The status flip and
// the history append commit in one transaction: a done batch without a
// history entry cannot exist, nor the reverse.
func (s *Service) Finish(batchID int, user string) error {
	batch, err := s.findBatch(batchID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txStatusRepo := s.statusRepo.WithTx(tx)
		ok, err := txStatusRepo.TryFinish(batchID, user)
		if err != nil {
			return err
		}
		if !ok {
			return rejectionFor(txStatusRepo, batchID, user)
		}

		ids := make([]string, 0, len(batch.Records))
		for _, r := range batch.Records {
			ids = append(ids, r.ExternalID)
		}
		memberIDs, err := json.Marshal(ids)
		if err != nil {
			return err
		}

		entry := &models.HistoryEntry{
			ID:         uuid.New(),
			BatchID:    batchID,
			Usuario:    user,
			Fornecedor: batch.Fornecedor,
			Pag:        batch.Pag,
			MemberIDs:  memberIDs,
			TotalValue: batch.TotalValue,
			ExecutedAt: time.Now(),
		}
		return s.historyRepo.WithTx(tx).Append(entry)
	})
	if err != nil {
		return err
	}

	log.Printf("batch %d finished by %s", batchID, user)
	return nil
}

// rejectionFor explains why a conditional release/finish matched no row.
func rejectionFor(statusRepo *repository.StatusRepository, batchID int, user string) error {
	status, err := statusRepo.Get(batchID)
	if err != nil {
		return err
	}
	if status != nil && status.State == models.StateInProgress &&
		status.Holder != nil && *status.Holder != user {
		return ErrNotHolder
	}
	return ErrInvalidTransition
}

// History returns completion entries newest first.
func (s *Service) History() ([]models.HistoryEntry, error) {
	return s.historyRepo.List()
}

// Login checks credentials and returns the user row. User lookup and
// password failures stay distinguishable, as the dashboard reports them
// separately; both satisfy errors.Is(err, ErrAuthentication).
func (s *Service) Login(username, password string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Password != password {
		return nil, ErrWrongPassword
	}
	return user, nil
}

// RequireAdmin checks that the acting user holds the admin role.
func (s *Service) RequireAdmin(username string) error {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return err
	}
	if user == nil || user.Role != models.RoleAdmin {
		return ErrAdminRequired
	}
	return nil
}
