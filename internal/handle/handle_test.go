package handle

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/gamesettings"
	"github.com/mod-troubleshooter/loadorder/internal/headerparser"
	"github.com/mod-troubleshooter/loadorder/internal/loadorder"
)

type stubParser struct{}

func (stubParser) ParseHeader(path string) (headerparser.Header, error) {
	return headerparser.Header{IsMaster: true}, nil
}

func newTestLoadOrder(t *testing.T) *loadorder.LoadOrder {
	t.Helper()
	gameDir := t.TempDir()
	localDir := t.TempDir()
	dataDir := filepath.Join(gameDir, "Data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "Skyrim.esm"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := gamesettings.New(game.SkyrimSE, gameDir, localDir)
	if err != nil {
		t.Fatalf("gamesettings.New() error = %v", err)
	}
	settings.RefreshImplicitlyActivePlugins(func(name string) bool {
		_, err := os.Stat(filepath.Join(dataDir, name))
		return err == nil
	})

	return loadorder.New(settings, stubParser{})
}

func TestWithReadAndWriteOnUnknownHandleFails(t *testing.T) {
	m := NewManager()
	id := uuid.New()

	if err := m.WithRead(id, func(*loadorder.LoadOrder) error { return nil }); err == nil {
		t.Error("WithRead() on an unknown handle should fail")
	}
	if err := m.WithWrite(id, func(*loadorder.LoadOrder) error { return nil }); err == nil {
		t.Error("WithWrite() on an unknown handle should fail")
	}
	if _, err := m.State(id); err == nil {
		t.Error("State() on an unknown handle should fail")
	}
}

func TestCreateThenStateReflectsLoadOrder(t *testing.T) {
	m := NewManager()
	lo := newTestLoadOrder(t)
	id := m.Create(lo)

	state, err := m.State(id)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != loadorder.Empty {
		t.Errorf("State() = %v, want Empty before Load()", state)
	}

	if err := m.WithWrite(id, func(lo *loadorder.LoadOrder) error { return lo.Load() }); err != nil {
		t.Fatalf("WithWrite(Load) error = %v", err)
	}

	state, err = m.State(id)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != loadorder.Loaded {
		t.Errorf("State() = %v, want Loaded after Load()", state)
	}
}

func TestDestroyMakesHandleUnknown(t *testing.T) {
	m := NewManager()
	id := m.Create(newTestLoadOrder(t))
	m.Destroy(id)

	if err := m.WithRead(id, func(*loadorder.LoadOrder) error { return nil }); err == nil {
		t.Error("WithRead() after Destroy() should fail")
	}
}

func TestDestroyUnknownHandleIsNoOp(t *testing.T) {
	m := NewManager()
	m.Destroy(uuid.New())
}

func TestConcurrentReadsDoNotBlockEachOther(t *testing.T) {
	m := NewManager()
	id := m.Create(newTestLoadOrder(t))

	var wg sync.WaitGroup
	start := make(chan struct{})
	const readers = 8
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_ = m.WithRead(id, func(*loadorder.LoadOrder) error {
				time.Sleep(10 * time.Millisecond)
				return nil
			})
		}()
	}

	begin := time.Now()
	close(start)
	wg.Wait()
	elapsed := time.Since(begin)

	if elapsed > 80*time.Millisecond {
		t.Errorf("concurrent reads took %v, want well under the serial sum (readers should overlap)", elapsed)
	}
}

func TestWriteExcludesConcurrentRead(t *testing.T) {
	m := NewManager()
	id := m.Create(newTestLoadOrder(t))

	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = m.WithWrite(id, func(*loadorder.LoadOrder) error {
			record("write-start")
			time.Sleep(20 * time.Millisecond)
			record("write-end")
			return nil
		})
	}()
	time.Sleep(5 * time.Millisecond)
	go func() {
		defer wg.Done()
		_ = m.WithRead(id, func(*loadorder.LoadOrder) error {
			record("read")
			return nil
		})
	}()
	wg.Wait()

	if len(order) != 3 || order[0] != "write-start" || order[2] != "write-end" {
		t.Errorf("operation order = %v, want the read to wait until the write finished", order)
	}
}
