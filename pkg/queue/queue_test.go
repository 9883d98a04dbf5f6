package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	_ Queue = (*Memory)(nil)
	_ Queue = (*Redis)(nil)
)

func TestNewJobAssignsUniqueIDs(t *testing.T) {
	a := NewJob("serde", "1.0.0")
	b := NewJob("serde", "1.0.0")
	if a.ID == "" || b.ID == "" {
		t.Fatal("job ids must not be empty")
	}
	if a.ID == b.ID {
		t.Errorf("two jobs share id %s", a.ID)
	}
	if a.Name != "serde" || a.Version != "1.0.0" {
		t.Errorf("job = %+v", a)
	}
}

func TestMemoryFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()
	for _, name := range []string{"first", "second", "third"} {
		if err := q.Push(ctx, NewJob(name, "")); err != nil {
			t.Fatalf("Push(%s) error = %v", name, err)
		}
	}
	if n, _ := q.Len(ctx); n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
	for _, want := range []string{"first", "second", "third"} {
		job, err := q.Pop(ctx, time.Second)
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		if job.Name != want {
			t.Errorf("Pop() = %s, want %s", job.Name, want)
		}
	}
	if n, _ := q.Len(ctx); n != 0 {
		t.Errorf("Len() = %d, want 0 after draining", n)
	}
}

func TestMemoryPopTimeout(t *testing.T) {
	_, err := NewMemory().Pop(context.Background(), 10*time.Millisecond)
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Pop() error = %v, want ErrEmpty", err)
	}
}

func TestMemoryPopBlocksUntilPush(t *testing.T) {
	q := NewMemory()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.Push(context.Background(), Job{ID: "42", Name: "late"})
	}()
	job, err := q.Pop(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if job.Name != "late" {
		t.Errorf("Pop() = %s, want the pushed job", job.Name)
	}
}

func TestMemoryPopContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := NewMemory().Pop(ctx, 0) // zero timeout blocks indefinitely
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Pop() error = %v, want context.Canceled", err)
	}
}
