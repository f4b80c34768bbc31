package notes

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/amm926616/april/internal/store"
)

func newTestStore(t *testing.T) (*Store, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "notes.sqlite"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, nil), db
}

func TestBlobRoundTrip(t *testing.T) {
	for _, s := range []string{"", "plain", strings.Repeat("<b>rich</b> ", 100), "ユニコード"} {
		got, err := DecodeBlob(EncodeBlob(s))
		if err != nil || got != s {
			t.Fatalf("round trip %q: %q, %v", s, got, err)
		}
	}
	if _, err := DecodeBlob("!!not base64"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTrackIdentityStable(t *testing.T) {
	a := TrackIdentity("/music/a.mp3")
	if a != TrackIdentity("/music/a.mp3") {
		t.Fatalf("identity not stable")
	}
	if a == TrackIdentity("/music/b.mp3") {
		t.Fatalf("identities collide")
	}
	if len(a) != 36 {
		t.Fatalf("unexpected identity %q", a)
	}
}

func TestSaveNoteReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)
	id := TrackIdentity("/music/a.mp3")

	got, err := s.LoadNotes(ctx, id)
	if err != nil || len(got) != 0 {
		t.Fatalf("empty load = %v, %v", got, err)
	}
	if err := s.SaveNote(ctx, id, 3, "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveNote(ctx, id, 7, "second"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveNote(ctx, id, 3, "first, edited"); err != nil {
		t.Fatal(err)
	}
	got, err = s.LoadNotes(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]string{3: "first, edited", 7: "second"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("notes = %v, want %v", got, want)
	}

	var rows int
	if err := db.Get(&rows, `SELECT COUNT(*) FROM notes`); err != nil || rows != 1 {
		t.Fatalf("rows = %d, %v", rows, err)
	}
	var raw string
	if err := db.Get(&raw, `SELECT json_notes FROM notes WHERE track_identifier = ?`, id); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(raw, `"3":`) || !strings.Contains(raw, `"7":`) {
		t.Fatalf("json_notes not keyed by line string: %s", raw)
	}
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)
	id := TrackIdentity("/music/a.mp3")
	_ = s.SaveNote(ctx, id, 1, "x")
	_ = s.SaveNote(ctx, id, 2, "y")
	if err := s.DeleteNote(ctx, id, 1); err != nil {
		t.Fatal(err)
	}
	got, _ := s.LoadNotes(ctx, id)
	if !reflect.DeepEqual(got, map[int]string{2: "y"}) {
		t.Fatalf("notes = %v", got)
	}
	if err := s.DeleteNote(ctx, id, 2); err != nil {
		t.Fatal(err)
	}
	var rows int
	_ = db.Get(&rows, `SELECT COUNT(*) FROM notes`)
	if rows != 0 {
		t.Fatalf("row should be removed with last note")
	}
}

func TestInvalidLine(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SaveNote(context.Background(), "t", -1, "x"); !errors.Is(err, ErrInvalidLine) {
		t.Fatalf("err = %v", err)
	}
}

func TestCorruptEntriesSkipped(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)
	value := `{"0":"` + EncodeBlob("ok") + `","1":"%%%","x":"` + EncodeBlob("bad key") + `"}`
	if _, err := db.Exec(`INSERT INTO notes(track_identifier, json_notes) VALUES(?, ?)`, "t", value); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadNotes(ctx, "t")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, map[int]string{0: "ok"}) {
		t.Fatalf("notes = %v", got)
	}

	if _, err := db.Exec(`UPDATE notes SET json_notes = 'not json' WHERE track_identifier = ?`, "t"); err != nil {
		t.Fatal(err)
	}
	got, err = s.LoadNotes(ctx, "t")
	if err != nil || len(got) != 0 {
		t.Fatalf("corrupt row = %v, %v", got, err)
	}
	if err := s.SaveNote(ctx, "t", 4, "repaired"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.LoadNotes(ctx, "t")
	if !reflect.DeepEqual(got, map[int]string{4: "repaired"}) {
		t.Fatalf("after repair = %v", got)
	}
}
