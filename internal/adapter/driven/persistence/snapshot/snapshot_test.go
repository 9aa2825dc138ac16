package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Wyydra/huddle/internal/adapter/driven/persistence/memory"
	"github.com/Wyydra/huddle/internal/core/domain"
)

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "huddle.msgpack")

	src := memory.NewStore(0)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := src.Users.Create(ctx, domain.User{Username: "alice", Name: "Alice", PasswordHash: []byte("hash"), CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := src.Users.Create(ctx, domain.User{Username: "bob", Name: "Bob", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	g := domain.Group{ID: domain.NewGroupID(), Name: "team", Owner: "alice", Members: []domain.Username{"alice", "bob"}, CreatedAt: now}
	if err := src.Groups.Create(ctx, g); err != nil {
		t.Fatal(err)
	}
	if err := src.Friends.Request(ctx, "alice", "bob"); err != nil {
		t.Fatal(err)
	}
	if err := src.Friends.Accept(ctx, "alice", "bob"); err != nil {
		t.Fatal(err)
	}
	msg, err := domain.NewMessage(domain.GroupChannel(g.ID), "alice", "Alice", "hello", now)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Messages.Save(ctx, *msg); err != nil {
		t.Fatal(err)
	}

	if err := Save(ctx, path, src); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	dst := memory.NewStore(0)
	if err := Load(ctx, path, dst); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	u, err := dst.Users.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get(alice) error = %v", err)
	}
	if u.Name != "Alice" || string(u.PasswordHash) != "hash" {
		t.Errorf("restored user = %+v", u)
	}

	groups, _ := dst.Groups.ListByMember(ctx, "bob")
	if len(groups) != 1 || groups[0].ID != g.ID {
		t.Fatalf("restored groups = %+v", groups)
	}

	friends, _ := dst.Friends.Friends(ctx, "bob")
	if len(friends) != 1 || friends[0] != "alice" {
		t.Errorf("restored friends = %v", friends)
	}

	hist, _ := dst.Messages.History(ctx, domain.GroupChannel(g.ID), 10)
	if len(hist) != 1 || hist[0].Text != "hello" || hist[0].ID != msg.ID {
		t.Errorf("restored history = %+v", hist)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := memory.NewStore(0)
	if err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"), store); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad")
	if err := os.WriteFile(path, []byte{0xc1}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Load(context.Background(), path, memory.NewStore(0)); err == nil {
		t.Fatal("Load() of a corrupt file should fail")
	}
}
