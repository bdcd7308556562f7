package service

// In-memory fakes of the repository interfaces. The services don't know
// whether they're talking to SQLite or a map — that's the point of the
// interfaces. Hand-written mocks keep the test setup visible; simulating
// a storage failure is just setting failWith on the mock.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/model"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// =========================================================================
// USER MOCK
// =========================================================================

type mockUserRepo struct {
	users    map[string]*model.User // by ID
	oauth    map[string]string      // "provider:accountID" → userID
	nextID   int
	failWith error // when set, every call fails with this
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users: make(map[string]*model.User),
		oauth: make(map[string]string),
	}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if m.failWith != nil {
		return m.failWith
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email already in use")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) GetUserByOAuth(_ context.Context, provider, providerAccountID string) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	userID, ok := m.oauth[provider+":"+providerAccountID]
	if !ok {
		return nil, apperror.NotFound("user", provider+":"+providerAccountID)
	}
	return m.GetUserByID(context.Background(), userID)
}

func (m *mockUserRepo) LinkOAuth(_ context.Context, userID, provider, providerAccountID string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.oauth[provider+":"+providerAccountID] = userID
	return nil
}

// =========================================================================
// WORKSPACE MOCK
// =========================================================================

type mockWorkspaceRepo struct {
	workspaces map[string]*model.Workspace
	members    map[string]map[string]bool // workspaceID → set of userIDs
	nextID     int
}

func newMockWorkspaceRepo() *mockWorkspaceRepo {
	return &mockWorkspaceRepo{
		workspaces: make(map[string]*model.Workspace),
		members:    make(map[string]map[string]bool),
	}
}

func (m *mockWorkspaceRepo) CreateWorkspace(_ context.Context, ws *model.Workspace) error {
	m.nextID++
	ws.ID = fmt.Sprintf("ws-%d", m.nextID)
	stored := *ws
	m.workspaces[ws.ID] = &stored
	return nil
}

func (m *mockWorkspaceRepo) GetWorkspaceByID(_ context.Context, id string) (*model.Workspace, error) {
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, apperror.NotFound("workspace", id)
	}
	result := *ws
	result.Members = nil
	for userID := range m.members[id] {
		result.Members = append(result.Members, model.User{ID: userID})
	}
	return &result, nil
}

func (m *mockWorkspaceRepo) ListWorkspacesForUser(_ context.Context, userID string) ([]model.Workspace, error) {
	result := []model.Workspace{}
	for id, ws := range m.workspaces {
		if ws.OwnerID == userID || m.members[id][userID] {
			result = append(result, *ws)
		}
	}
	return result, nil
}

func (m *mockWorkspaceRepo) UpdateWorkspace(_ context.Context, ws *model.Workspace) error {
	if _, ok := m.workspaces[ws.ID]; !ok {
		return apperror.NotFound("workspace", ws.ID)
	}
	stored := *ws
	m.workspaces[ws.ID] = &stored
	return nil
}

func (m *mockWorkspaceRepo) DeleteWorkspace(_ context.Context, id string) error {
	if _, ok := m.workspaces[id]; !ok {
		return apperror.NotFound("workspace", id)
	}
	delete(m.workspaces, id)
	delete(m.members, id)
	return nil
}

func (m *mockWorkspaceRepo) IsMember(_ context.Context, workspaceID, userID string) (bool, error) {
	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return false, nil
	}
	return ws.OwnerID == userID || m.members[workspaceID][userID], nil
}

func (m *mockWorkspaceRepo) AddMember(_ context.Context, workspaceID, userID string) error {
	if m.members[workspaceID] == nil {
		m.members[workspaceID] = make(map[string]bool)
	}
	m.members[workspaceID][userID] = true
	return nil
}

func (m *mockWorkspaceRepo) RemoveMember(_ context.Context, workspaceID, userID string) error {
	delete(m.members[workspaceID], userID)
	return nil
}

// =========================================================================
// COLLECTION MOCK
// =========================================================================

type mockCollectionRepo struct {
	collections map[string]*model.Collection
	nextID      int
}

func newMockCollectionRepo() *mockCollectionRepo {
	return &mockCollectionRepo{collections: make(map[string]*model.Collection)}
}

func (m *mockCollectionRepo) CreateCollection(_ context.Context, c *model.Collection) error {
	m.nextID++
	c.ID = fmt.Sprintf("col-%d", m.nextID)
	stored := *c
	m.collections[c.ID] = &stored
	return nil
}

func (m *mockCollectionRepo) GetCollectionByID(_ context.Context, id string) (*model.Collection, error) {
	c, ok := m.collections[id]
	if !ok {
		return nil, apperror.NotFound("collection", id)
	}
	result := *c
	return &result, nil
}

func (m *mockCollectionRepo) ListCollectionsByWorkspace(_ context.Context, workspaceID string) ([]model.Collection, error) {
	result := []model.Collection{}
	for _, c := range m.collections {
		if c.WorkspaceID == workspaceID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCollectionRepo) UpdateCollection(_ context.Context, c *model.Collection) error {
	if _, ok := m.collections[c.ID]; !ok {
		return apperror.NotFound("collection", c.ID)
	}
	stored := *c
	m.collections[c.ID] = &stored
	return nil
}

func (m *mockCollectionRepo) DeleteCollection(_ context.Context, id string) error {
	if _, ok := m.collections[id]; !ok {
		return apperror.NotFound("collection", id)
	}
	delete(m.collections, id)
	return nil
}

// =========================================================================
// SNIPPET MOCK
// =========================================================================

type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func tagsFromNames(names []string) []model.Tag {
	tags := make([]model.Tag, 0, len(names))
	for _, n := range names {
		tags = append(tags, model.Tag{ID: "tag-" + n, Name: n})
	}
	return tags
}

func (m *mockSnippetRepo) CreateSnippet(_ context.Context, snippet *model.Snippet, tags []string) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("snip-%d", m.nextID)
	snippet.Tags = tagsFromNames(tags)
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetSnippetByID(_ context.Context, id string) (*model.Snippet, error) {
	s, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *s
	return &result, nil
}

func (m *mockSnippetRepo) ListSnippetsByCollection(_ context.Context, collectionID string) ([]model.Snippet, error) {
	result := []model.Snippet{}
	for _, s := range m.snippets {
		if s.CollectionID == collectionID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSnippetRepo) UpdateSnippet(_ context.Context, snippet *model.Snippet, tags []string, replaceTags bool) error {
	existing, ok := m.snippets[snippet.ID]
	if !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	if replaceTags {
		snippet.Tags = tagsFromNames(tags)
	} else {
		snippet.Tags = existing.Tags
	}
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) DeleteSnippet(_ context.Context, id string) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

// seedWorkspace creates a workspace owned by ownerID, for tests that need
// one without going through the service validation path.
func seedWorkspace(t *testing.T, repo *mockWorkspaceRepo, ownerID string) *model.Workspace {
	t.Helper()
	ws := &model.Workspace{Name: "seed", OwnerID: ownerID}
	if err := repo.CreateWorkspace(context.Background(), ws); err != nil {
		t.Fatalf("seeding workspace: %v", err)
	}
	return ws
}
