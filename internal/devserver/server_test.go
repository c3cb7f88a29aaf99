package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parley/internal/api"
)

func newTestClient(t *testing.T) (*api.Client, func(string)) {
	t.Helper()
	srv := httptest.NewServer(New(Config{}).Router())
	t.Cleanup(srv.Close)
	token := ""
	client := api.New(srv.URL, func() string { return token })
	return client, func(tok string) { token = tok }
}

func register(t *testing.T, client *api.Client, name, email string) {
	t.Helper()
	if _, err := client.Register(context.Background(), name, email, "secret1"); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
}

func login(t *testing.T, client *api.Client, email string) string {
	t.Helper()
	token, err := client.Login(context.Background(), email, "secret1")
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return token
}

func TestFullConversationFlow(t *testing.T) {
	client, setToken := newTestClient(t)
	ctx := context.Background()

	register(t, client, "Ada", "ada@example.com")
	setToken(login(t, client, "ada@example.com"))

	name, err := client.Profile(ctx)
	if err != nil || name != "Ada" {
		t.Fatalf("Profile = %q, %v; want Ada", name, err)
	}

	chat, segments, err := client.CreateChat(ctx, "first steps", "hello there")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if chat.ID == "" || chat.Name != "first steps" {
		t.Fatalf("chat = %+v", chat)
	}
	if len(segments) == 0 {
		t.Fatalf("create must return responder segments")
	}

	messages, err := client.Messages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 1+len(segments) {
		t.Fatalf("history length = %d, want user message plus %d segments", len(messages), len(segments))
	}
	if messages[0].Sender != api.SenderUser || messages[0].Text != "hello there" {
		t.Fatalf("first message = %+v", messages[0])
	}

	more, err := client.SendMessage(ctx, chat.ID, "what is the plan?")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(more) != 2 {
		t.Fatalf("question must yield 2 segments, got %d", len(more))
	}

	chats, err := client.Chats(ctx)
	if err != nil || len(chats) != 1 {
		t.Fatalf("Chats = %v, %v; want one chat", chats, err)
	}

	if err := client.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	if chats, _ = client.Chats(ctx); len(chats) != 0 {
		t.Fatalf("chat list not empty after delete: %v", chats)
	}
}

func TestChatListNewestFirst(t *testing.T) {
	srv := New(Config{})
	base := time.Now()
	clock := base
	srv.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	token := ""
	client := api.New(ts.URL, func() string { return token })
	register(t, client, "Ada", "ada@example.com")
	token = login(t, client, "ada@example.com")

	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		if _, _, err := client.CreateChat(ctx, text, text); err != nil {
			t.Fatalf("CreateChat %s: %v", text, err)
		}
	}
	chats, err := client.Chats(ctx)
	if err != nil {
		t.Fatalf("Chats: %v", err)
	}
	want := []string{"three", "two", "one"}
	for i, c := range chats {
		if c.Name != want[i] {
			t.Fatalf("chats[%d] = %q, want %q", i, c.Name, want[i])
		}
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.Chats(context.Background())
	var status *api.StatusError
	if !errors.As(err, &status) || status.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	client, _ := newTestClient(t)
	register(t, client, "Ada", "ada@example.com")
	_, err := client.Login(context.Background(), "ada@example.com", "wrong")
	var status *api.StatusError
	if !errors.As(err, &status) || status.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestRegisterRejectsDuplicateAndShortPassword(t *testing.T) {
	client, _ := newTestClient(t)
	register(t, client, "Ada", "ada@example.com")

	_, err := client.Register(context.Background(), "Ada", "ada@example.com", "secret1")
	var status *api.StatusError
	if !errors.As(err, &status) || status.Status != http.StatusConflict {
		t.Fatalf("duplicate: err = %v, want 409", err)
	}
	_, err = client.Register(context.Background(), "Bob", "bob@example.com", "tiny")
	if !errors.As(err, &status) || status.Status != http.StatusBadRequest {
		t.Fatalf("short password: err = %v, want 400", err)
	}
}

func TestSharingFlow(t *testing.T) {
	client, setToken := newTestClient(t)
	ctx := context.Background()

	register(t, client, "Ada", "ada@example.com")
	register(t, client, "Bob", "bob@example.com")
	setToken(login(t, client, "ada@example.com"))

	chat, _, err := client.CreateChat(ctx, "shared notes", "hello")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	var status *api.StatusError
	if _, err = client.ShareChat(ctx, chat.ID, "nobody@example.com"); !errors.As(err, &status) || status.Status != http.StatusNotFound {
		t.Fatalf("unknown target: err = %v, want 404", err)
	}
	if _, err = client.ShareChat(ctx, chat.ID, "ada@example.com"); !errors.As(err, &status) || status.Status != http.StatusBadRequest {
		t.Fatalf("self share: err = %v, want 400", err)
	}
	if _, err = client.ShareChat(ctx, chat.ID, "bob@example.com"); err != nil {
		t.Fatalf("ShareChat: %v", err)
	}

	setToken(login(t, client, "bob@example.com"))
	shared, err := client.SharedChats(ctx)
	if err != nil {
		t.Fatalf("SharedChats: %v", err)
	}
	if len(shared) != 1 || shared[0].Name != "shared notes" || shared[0].Owner != "Ada" {
		t.Fatalf("shared = %+v", shared)
	}
	// grantee can read but not own: messages yes, delete no
	if _, err := client.Messages(ctx, chat.ID); err != nil {
		t.Fatalf("grantee Messages: %v", err)
	}
	if err := client.DeleteChat(ctx, chat.ID); !errors.As(err, &status) || status.Status != http.StatusNotFound {
		t.Fatalf("grantee delete: err = %v, want 404", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	client, setToken := newTestClient(t)
	ctx := context.Background()
	register(t, client, "Ada", "ada@example.com")
	setToken(login(t, client, "ada@example.com"))

	_, err := client.UpdateProfile(ctx, api.UpdateProfileRequest{Name: "Ada L", OldPassword: "wrong", NewPassword: "secret2"})
	var status *api.StatusError
	if !errors.As(err, &status) || status.Status != http.StatusForbidden {
		t.Fatalf("wrong old password: err = %v, want 403", err)
	}

	if _, err = client.UpdateProfile(ctx, api.UpdateProfileRequest{Name: "Ada L", OldPassword: "secret1", NewPassword: "secret2"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if name, _ := client.Profile(ctx); name != "Ada L" {
		t.Fatalf("name = %q, want Ada L", name)
	}
	if _, err := client.Login(ctx, "ada@example.com", "secret2"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestResponderSegmentShape(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 1},
		{"hi", 1},
		{"how does this work?", 2},
		{"one two three four five six seven eight nine ten eleven twelve thirteen", 3},
	}
	for _, tc := range cases {
		if got := len(respond(tc.text)); got != tc.want {
			t.Fatalf("respond(%q) yields %d segments, want %d", tc.text, got, tc.want)
		}
	}
}
