package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/auth"
	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/services"
	"github.com/privnotes/notes/internal/server/storage/mocks"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string
	signupErr error
	getErr    error
	signups   []services.SignupInput
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*models.User{}, passwords: map[string]string{}}
}

func (f *fakeUsers) add(id, email, password string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: id, Email: email, CreatedAt: time.Now()}
	f.users[id] = u
	f.passwords[email] = password
	return u
}

func (f *fakeUsers) Signup(ctx context.Context, in services.SignupInput) (*models.User, error) {
	f.mu.Lock()
	f.signups = append(f.signups, in)
	f.mu.Unlock()

	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return f.add("new-user", in.Email, in.Password), nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[email]; ok && pw == password {
		for _, u := range f.users {
			if u.Email == email {
				return u, nil
			}
		}
	}
	return nil, &services.ValidationError{Fields: map[string]string{"email": "Invalid email or password"}}
}

func (f *fakeUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsers) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type fakeAccounts struct {
	issueResetErr error
	resetUserID   string
	resetErr      error
	checkResetErr error
	verifyErr     error
	issueErr      error
	deleteErr     error
	undoDeleted   bool
	export        *models.DataExport

	calls []string
}

func (f *fakeAccounts) IssueVerificationToken(ctx context.Context, userID string) (string, error) {
	f.calls = append(f.calls, "issue-verify:"+userID)
	return "tok", f.issueErr
}

func (f *fakeAccounts) ConsumeVerificationToken(ctx context.Context, userID, token string) error {
	f.calls = append(f.calls, "verify:"+userID+":"+token)
	return f.verifyErr
}

func (f *fakeAccounts) IssueResetToken(ctx context.Context, email string) (string, error) {
	f.calls = append(f.calls, "issue-reset:"+email)
	return "tok", f.issueResetErr
}

func (f *fakeAccounts) CheckResetToken(ctx context.Context, token string) error {
	f.calls = append(f.calls, "check-reset:"+token)
	return f.checkResetErr
}

func (f *fakeAccounts) ConsumeResetToken(ctx context.Context, token, newPassword string) (string, error) {
	f.calls = append(f.calls, "reset:"+token)
	if f.resetErr != nil {
		return "", f.resetErr
	}
	return f.resetUserID, nil
}

func (f *fakeAccounts) DeletePartialData(ctx context.Context, userID, phrase string) error {
	f.calls = append(f.calls, "delete-most:"+phrase)
	return f.deleteErr
}

func (f *fakeAccounts) DeleteAccount(ctx context.Context, userID, phrase string) error {
	f.calls = append(f.calls, "delete-all:"+phrase)
	return f.deleteErr
}

func (f *fakeAccounts) UndoSignup(ctx context.Context, userID, token string) (bool, error) {
	f.calls = append(f.calls, "undo:"+userID+":"+token)
	return f.undoDeleted, nil
}

func (f *fakeAccounts) ExportData(ctx context.Context, userID string) (*models.DataExport, error) {
	if f.export == nil {
		return nil, common.ErrorNotFound
	}
	return f.export, nil
}

type fakeProfiles struct {
	users *fakeUsers
	last  services.ProfileInput
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, userID string, in services.ProfileInput) (*models.User, error) {
	f.last = in
	u, err := f.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.DoNotSell = in.DoNotSell
	return u, nil
}

type fakeNotes struct {
	notes     map[string]*models.Note
	createErr error
	lastInput services.NoteInput
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{notes: map[string]*models.Note{}}
}

func (f *fakeNotes) ListNotes(ctx context.Context, userID string) ([]*models.Note, error) {
	out := []*models.Note{}
	for _, n := range f.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotes) GetNote(ctx context.Context, userID, id string) (*models.Note, error) {
	n, ok := f.notes[id]
	if !ok || n.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return n, nil
}

func (f *fakeNotes) CreateNote(ctx context.Context, userID string, in services.NoteInput) (*models.Note, error) {
	f.lastInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	n := &models.Note{ID: "note-1", UserID: userID, Name: in.Name, Body: in.Body}
	f.notes[n.ID] = n
	return n, nil
}

func (f *fakeNotes) UpdateNote(ctx context.Context, userID, id string, in services.NoteInput) (*models.Note, error) {
	f.lastInput = in
	n, err := f.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	n.Name, n.Body = in.Name, in.Body
	return n, nil
}

func (f *fakeNotes) DeleteNote(ctx context.Context, userID, id string) error {
	if _, err := f.GetNote(ctx, userID, id); err != nil {
		return err
	}
	delete(f.notes, id)
	return nil
}

type fakePages struct {
	pages   map[string]*models.Page
	listErr error
}

func newFakePages() *fakePages {
	return &fakePages{pages: map[string]*models.Page{}}
}

func (f *fakePages) ListPages(ctx context.Context) ([]*models.Page, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*models.Page{}
	for _, p := range f.pages {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePages) GetPage(ctx context.Context, id string) (*models.Page, error) {
	p, ok := f.pages[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakePages) GetPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	for _, p := range f.pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakePages) CreatePage(ctx context.Context, in services.PageInput) (*models.Page, error) {
	for _, p := range f.pages {
		if p.Slug == in.Slug {
			return nil, &services.ValidationError{Fields: map[string]string{"slug": "taken"}}
		}
	}
	p := &models.Page{ID: "page-1", Title: in.Title, Slug: in.Slug, Body: in.Body}
	f.pages[p.ID] = p
	return p, nil
}

func (f *fakePages) UpdatePage(ctx context.Context, id string, in services.PageInput) (*models.Page, error) {
	p, err := f.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Title, p.Slug, p.Body = in.Title, in.Slug, in.Body
	return p, nil
}

func (f *fakePages) DeletePage(ctx context.Context, id string) error {
	if _, err := f.GetPage(ctx, id); err != nil {
		return err
	}
	delete(f.pages, id)
	return nil
}

type fakeSites struct {
	site *models.SiteSettings
	last services.SiteInput
}

func (f *fakeSites) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	if f.site == nil {
		return &models.SiteSettings{}, nil
	}
	return f.site, nil
}

func (f *fakeSites) SaveSiteSettings(ctx context.Context, in services.SiteInput) (*models.SiteSettings, error) {
	f.last = in
	f.site = &models.SiteSettings{Name: in.Name, Tagline: in.Tagline, Lede: in.Lede}
	return f.site, nil
}

type testEnv struct {
	srv      *Server
	users    *fakeUsers
	accounts *fakeAccounts
	profiles *fakeProfiles
	notes    *fakeNotes
	pages    *fakePages
	sites    *fakeSites
	media    *mocks.MockStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUsers()
	env := &testEnv{
		users:    users,
		accounts: &fakeAccounts{},
		profiles: &fakeProfiles{users: users},
		notes:    newFakeNotes(),
		pages:    newFakePages(),
		sites:    &fakeSites{},
		media:    &mocks.MockStore{},
	}

	env.srv = NewServer("127.0.0.1:0", logging.NewNop(), Services{
		Users:    env.users,
		Accounts: env.accounts,
		Profiles: env.profiles,
		Notes:    env.notes,
		Pages:    env.pages,
		Sites:    env.sites,
		Media:    env.media,
	}, Options{
		SecretKey:          testSecret,
		SessionTTL:         time.Hour,
		RateLimitPerMinute: 100,
	})

	t.Cleanup(func() { env.media.AssertExpectations(t) })
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.srv.App().Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func formRequest(method, path string, vals url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, path string, vals map[string]string, field, filename string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range vals {
		require.NoError(t, w.WriteField(k, v))
	}
	if field != "" {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func withSession(t *testing.T, req *http.Request, userID string) *http.Request {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: tok})
	return req
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func fieldErrs(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body := decode(t, resp)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok, "no field errors in %v", body)
	return errs
}
