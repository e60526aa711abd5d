package services

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/png"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/cryptox"
	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/config"
	"github.com/privnotes/notes/internal/server/mail"
	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/repositories/notes"
	"github.com/privnotes/notes/internal/server/repositories/pages"
	"github.com/privnotes/notes/internal/server/repositories/sites"
	"github.com/privnotes/notes/internal/server/repositories/tokens"
	"github.com/privnotes/notes/internal/server/repositories/users"
	"github.com/privnotes/notes/internal/server/storage"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BaseURL = "http://notes.test"
	return cfg
}

// --- store ---

// fakeStore is an in-memory credential and content store shared by the fake
// repositories, so deleting a user cascades the way the schema does.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string
	tokens    map[string]*fakeToken
	notes     map[string]*models.Note
	pages     map[string]*models.Page
	site      *models.SiteSettings

	findErr   error
	createErr error
	updateErr error
}

type fakeToken struct {
	userID   string
	purpose  models.TokenPurpose
	hash     string
	expires  time.Time
	consumed bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		tokens:    map[string]*fakeToken{},
		notes:     map[string]*models.Note{},
		pages:     map[string]*models.Page{},
	}
}

func (s *fakeStore) addUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := (&fakeUsersRepo{s}).Create(context.Background(), email, hash, true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// issue stores a live token and returns its raw value.
func (s *fakeStore) issue(t *testing.T, userID string, purpose models.TokenPurpose, ttl time.Duration) string {
	t.Helper()
	raw, hash, err := cryptox.NewToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if err := (&fakeTokensRepo{s}).Replace(context.Background(), userID, purpose, hash, ttl); err != nil {
		t.Fatalf("replace: %v", err)
	}
	return raw
}

func (s *fakeStore) live(userID string, purpose models.TokenPurpose) *fakeToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tok := range s.tokens {
		if tok.userID == userID && tok.purpose == purpose && !tok.consumed {
			return tok
		}
	}
	return nil
}

// --- repomanager ---

type fakeRepoManager struct {
	store *fakeStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository { return &fakeUsersRepo{m.store} }
func (m *fakeRepoManager) Tokens(dbx.DBTX) tokens.Repository { return &fakeTokensRepo{m.store} }
func (m *fakeRepoManager) Notes(dbx.DBTX) notes.Repository { return &fakeNotesRepo{m.store} }
func (m *fakeRepoManager) Pages(dbx.DBTX) pages.Repository { return &fakePagesRepo{m.store} }
func (m *fakeRepoManager) Sites(dbx.DBTX) sites.Repository { return &fakeSitesRepo{m.store} }

// --- users ---

type fakeUsersRepo struct{ s *fakeStore }

func (f *fakeUsersRepo) Create(ctx context.Context, email, passwordHash string, doNotSell bool) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createErr != nil {
		return nil, f.s.createErr
	}
	for _, u := range f.s.users {
		if u.Email == email {
			return nil, common.ErrEmailTaken
		}
	}
	now := time.Now()
	u := &models.User{ID: uuid.NewString(), Email: email, DoNotSell: doNotSell, CreatedAt: now, UpdatedAt: now}
	f.s.users[u.ID] = u
	f.s.passwords[u.ID] = passwordHash
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.findErr != nil {
		return nil, f.s.findErr
	}
	for _, u := range f.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.findErr != nil {
		return nil, f.s.findErr
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) PasswordHash(ctx context.Context, id string) (string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	h, ok := f.s.passwords[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	return h, nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.updateErr != nil {
		return f.s.updateErr
	}
	if _, ok := f.s.passwords[id]; !ok {
		return common.ErrorNotFound
	}
	f.s.passwords[id] = hash
	return nil
}

func (f *fakeUsersRepo) SetEmailVerified(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.EmailVerified = true
	return nil
}

func (f *fakeUsersRepo) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.updateErr != nil {
		return nil, f.s.updateErr
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.DoNotSell = upd.DoNotSell
	if upd.VisualAvatar != nil {
		u.VisualAvatar = upd.VisualAvatar
	}
	if upd.VisualAvatarDescription != nil {
		u.VisualAvatarDescription = upd.VisualAvatarDescription
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) DeleteByID(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.users, id)
	delete(f.s.passwords, id)
	for k, tok := range f.s.tokens {
		if tok.userID == id {
			delete(f.s.tokens, k)
		}
	}
	for k, n := range f.s.notes {
		if n.UserID == id {
			delete(f.s.notes, k)
		}
	}
	return nil
}

// --- tokens ---

type fakeTokensRepo struct{ s *fakeStore }

func (f *fakeTokensRepo) Replace(ctx context.Context, userID string, purpose models.TokenPurpose, hash string, ttl time.Duration) error {
	if err := f.DeleteForUser(ctx, userID, purpose); err != nil {
		return err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.tokens[uuid.NewString()] = &fakeToken{userID: userID, purpose: purpose, hash: hash, expires: time.Now().Add(ttl)}
	return nil
}

func (f *fakeTokensRepo) ConsumeForUser(ctx context.Context, userID string, purpose models.TokenPurpose, hash string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, tok := range f.s.tokens {
		if tok.userID == userID && tok.purpose == purpose && tok.hash == hash && !tok.consumed && tok.expires.After(time.Now()) {
			tok.consumed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokensRepo) Consume(ctx context.Context, purpose models.TokenPurpose, hash string) (string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, tok := range f.s.tokens {
		if tok.purpose == purpose && tok.hash == hash && !tok.consumed && tok.expires.After(time.Now()) {
			tok.consumed = true
			return tok.userID, nil
		}
	}
	return "", common.ErrorNotFound
}

func (f *fakeTokensRepo) Find(ctx context.Context, purpose models.TokenPurpose, hash string) (string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, tok := range f.s.tokens {
		if tok.purpose == purpose && tok.hash == hash && !tok.consumed && tok.expires.After(time.Now()) {
			return tok.userID, nil
		}
	}
	return "", common.ErrorNotFound
}

func (f *fakeTokensRepo) DeleteForUser(ctx context.Context, userID string, purpose models.TokenPurpose) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for k, tok := range f.s.tokens {
		if tok.userID == userID && tok.purpose == purpose && !tok.consumed {
			delete(f.s.tokens, k)
		}
	}
	return nil
}

// --- notes ---

type fakeNotesRepo struct{ s *fakeStore }

func (f *fakeNotesRepo) ListByUser(ctx context.Context, userID string) ([]*models.Note, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []*models.Note{}
	for _, n := range f.s.notes {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeNotesRepo) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n, ok := f.s.notes[id]
	if !ok || n.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotesRepo) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createErr != nil {
		return nil, f.s.createErr
	}
	cp := *note
	cp.ID = uuid.NewString()
	cp.CreatedAt, cp.UpdatedAt = time.Now(), time.Now()
	f.s.notes[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeNotesRepo) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.updateErr != nil {
		return nil, f.s.updateErr
	}
	n, ok := f.s.notes[note.ID]
	if !ok || n.UserID != note.UserID {
		return nil, common.ErrorNotFound
	}
	cp := *note
	cp.CreatedAt, cp.UpdatedAt = n.CreatedAt, time.Now()
	f.s.notes[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeNotesRepo) Delete(ctx context.Context, userID, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n, ok := f.s.notes[id]
	if !ok || n.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.s.notes, id)
	return nil
}

func (f *fakeNotesRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for k, note := range f.s.notes {
		if note.UserID == userID {
			delete(f.s.notes, k)
			n++
		}
	}
	return n, nil
}

// --- pages ---

type fakePagesRepo struct{ s *fakeStore }

func (f *fakePagesRepo) List(ctx context.Context) ([]*models.Page, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []*models.Page{}
	for _, p := range f.s.pages {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakePagesRepo) Get(ctx context.Context, id string) (*models.Page, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.pages[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePagesRepo) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, p := range f.s.pages {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakePagesRepo) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, p := range f.s.pages {
		if p.Slug == slug && p.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePagesRepo) Create(ctx context.Context, page *models.Page) (*models.Page, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createErr != nil {
		return nil, f.s.createErr
	}
	cp := *page
	cp.ID = uuid.NewString()
	f.s.pages[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePagesRepo) Update(ctx context.Context, page *models.Page) (*models.Page, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.updateErr != nil {
		return nil, f.s.updateErr
	}
	if _, ok := f.s.pages[page.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *page
	f.s.pages[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePagesRepo) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.pages[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.pages, id)
	return nil
}

// --- sites ---

type fakeSitesRepo struct{ s *fakeStore }

func (f *fakeSitesRepo) Get(ctx context.Context) (*models.SiteSettings, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.site == nil {
		return nil, common.ErrorNotFound
	}
	cp := *f.s.site
	return &cp, nil
}

func (f *fakeSitesRepo) Save(ctx context.Context, in *models.SiteSettings) (*models.SiteSettings, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.updateErr != nil {
		return nil, f.s.updateErr
	}
	cp := *in
	cp.UpdatedAt = time.Now()
	f.s.site = &cp
	out := cp
	return &out, nil
}

// --- mail ---

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Notify(ctx context.Context, msg mail.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
}

func (m *recordingMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return m.sent[len(m.sent)-1]
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var nopLog = logging.NewNop()

func pngUpload(t *testing.T) *storage.Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("png: %v", err)
	}
	return &storage.Upload{Filename: "pic.png", Data: buf.Bytes()}
}

// tokenFromLink extracts the token from the first "{base}/{path}/{token}"
// link in text.
func tokenFromLink(t *testing.T, text, base, path string) string {
	t.Helper()
	re := regexp.MustCompile(regexp.QuoteMeta(base+"/"+path+"/") + "([0-9a-f]{32})")
	m := re.FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("no %s link in %q", path, text)
	}
	return m[1]
}
