package packdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"packdb/internal/model"
	"packdb/internal/packdb"
	"packdb/internal/testutil"
	"packdb/internal/validate"
)

func newTestAsync(t *testing.T) (*packdb.AsyncController, *packdb.Controller) {
	t.Helper()
	ctrl := packdb.NewController(testutil.NewTestStore(t), nil)
	async := packdb.NewAsyncController(ctrl, nil)
	return async, ctrl
}

// blockingObserver parks the worker goroutine inside Flushed until
// released, so tests can pin a task mid-flight.
type blockingObserver struct {
	packdb.NopObserver
	entered chan struct{}
	release chan struct{}
}

func newBlockingObserver() *blockingObserver {
	return &blockingObserver{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingObserver) Flushed() {
	b.entered <- struct{}{}
	<-b.release
}

func TestAsyncController_OperationsRunInSubmissionOrder(t *testing.T) {
	async, _ := newTestAsync(t)
	ctx := context.Background()

	// Queue a whole dependent chain without waiting in between. Each
	// step only succeeds if its parent was created first.
	if _, err := async.AddServer("irc.example.net", 6667, "mynick", "", "", model.AuthNone, "", ""); err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	if _, err := async.AddChannel("irc.example.net", "#music", ""); err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}
	if _, err := async.AddBot("irc.example.net", "#music", "musicbot", true); err != nil {
		t.Fatalf("AddBot() error = %v", err)
	}
	if _, err := async.UpdateOrAddPack("irc.example.net", "#music", "musicbot", 1, "Album.tar", "700M", false); err != nil {
		t.Fatalf("UpdateOrAddPack() error = %v", err)
	}

	f, err := async.GetServer("irc.example.net")
	if err != nil {
		t.Fatalf("GetServer() error = %v", err)
	}
	server, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if server == nil {
		t.Fatal("server not created")
	}
	if len(server.Channels) != 1 || len(server.Channels[0].Bots) != 1 || len(server.Channels[0].Bots[0].Packs) != 1 {
		t.Errorf("tree incomplete, ops ran out of order: %+v", server)
	}

	if err := async.Close(ctx, time.Second); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestAsyncController_ObserverSeesEventsInOrder(t *testing.T) {
	async, _ := newTestAsync(t)
	ctx := context.Background()
	obs := &testutil.RecordingObserver{}

	if _, err := async.AddObserver(obs); err != nil {
		t.Fatalf("AddObserver() error = %v", err)
	}
	if _, err := async.AddServer("irc.example.net", 6667, "mynick", "", "", model.AuthNone, "", ""); err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	if _, err := async.AddChannel("irc.example.net", "#music", ""); err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}
	if err := async.Close(ctx, time.Second); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	changes := obs.Changes()
	if len(changes) != 2 {
		t.Fatalf("changes = %v, want server-added then channel-added", changes)
	}
	if changes[0] != "server-added irc.example.net:6667 nick=mynick user=mynick real=mynick auth=none" {
		t.Errorf("changes[0] = %q", changes[0])
	}
	if changes[1] != "channel-added irc.example.net #music" {
		t.Errorf("changes[1] = %q", changes[1])
	}
}

func TestAsyncController_ValidationFailsFast(t *testing.T) {
	async, _ := newTestAsync(t)
	defer async.Close(context.Background(), time.Second)

	tests := []struct {
		name string
		call func() error
	}{
		{"empty host", func() error {
			_, err := async.AddServer("", 6667, "mynick", "", "", model.AuthNone, "", "")
			return err
		}},
		{"bad nick", func() error {
			_, err := async.AddBot("irc.example.net", "#music", "bad bot", false)
			return err
		}},
		{"bad channel", func() error {
			_, err := async.AddChannel("irc.example.net", "music", "")
			return err
		}},
		{"nickserv without password", func() error {
			_, err := async.SetServerIdentity("irc.example.net", "mynick", "", "", model.AuthNickServ, "")
			return err
		}},
		{"wildcard search term", func() error {
			_, err := async.FindPack("a%b")
			return err
		}},
		{"blank file name", func() error {
			_, err := async.UpdateOrAddPack("irc.example.net", "#music", "musicbot", 1, " ", "1M", false)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, validate.ErrInvalid) {
				t.Errorf("error = %v, want ErrInvalid (checked before queueing)", err)
			}
		})
	}
}

func TestAsyncController_CancelWhileQueued(t *testing.T) {
	async, ctrl := newTestAsync(t)
	ctx := context.Background()

	block := newBlockingObserver()
	if err := ctrl.AddObserver(block); err != nil {
		t.Fatalf("AddObserver() error = %v", err)
	}

	// The first task parks the worker inside the flush notification.
	f1, err := async.AddServer("irc.example.net", 6667, "mynick", "", "", model.AuthNone, "", "")
	if err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	<-block.entered

	// The second task is still queued behind it and can be cancelled.
	f2, err := async.AddChannel("irc.example.net", "#music", "")
	if err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}
	if !f2.Cancel() {
		t.Fatal("Cancel() = false for a queued task")
	}
	if f2.Cancel() {
		t.Error("second Cancel() = true, want false")
	}

	close(block.release)
	if _, err := f1.Wait(ctx); err != nil {
		t.Fatalf("f1.Wait() error = %v", err)
	}
	if _, err := f2.Wait(ctx); !errors.Is(err, packdb.ErrCancelled) {
		t.Errorf("f2.Wait() error = %v, want ErrCancelled", err)
	}

	// The cancelled channel add never ran.
	f3, err := async.GetChannel("irc.example.net", "#music")
	if err != nil {
		t.Fatalf("GetChannel() error = %v", err)
	}
	ch, err := f3.Wait(ctx)
	if err != nil {
		t.Fatalf("f3.Wait() error = %v", err)
	}
	if ch != nil {
		t.Error("cancelled task was executed")
	}

	if err := async.Close(ctx, time.Second); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestAsyncController_CancelAfterStartReportsFalse(t *testing.T) {
	async, ctrl := newTestAsync(t)
	ctx := context.Background()

	block := newBlockingObserver()
	if err := ctrl.AddObserver(block); err != nil {
		t.Fatalf("AddObserver() error = %v", err)
	}

	f, err := async.AddServer("irc.example.net", 6667, "mynick", "", "", model.AuthNone, "", "")
	if err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	<-block.entered

	// The task is mid-flight, so it must run to completion.
	if f.Cancel() {
		t.Error("Cancel() = true for a running task")
	}

	close(block.release)
	if _, err := f.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}

	if err := async.Close(ctx, time.Second); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestAsyncController_CloseDrainsQueue(t *testing.T) {
	async, ctrl := newTestAsync(t)
	ctx := context.Background()

	f1, err := async.AddServer("irc.example.net", 6667, "mynick", "", "", model.AuthNone, "", "")
	if err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	f2, err := async.AddChannel("irc.example.net", "#music", "")
	if err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}

	if err := async.Close(ctx, 5*time.Second); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := f1.Wait(ctx); err != nil {
		t.Errorf("f1.Wait() error = %v", err)
	}
	if _, err := f2.Wait(ctx); err != nil {
		t.Errorf("f2.Wait() error = %v", err)
	}
	if !ctrl.IsClosed() {
		t.Error("controller not closed after drain")
	}
}

func TestAsyncController_SubmitAfterCloseFails(t *testing.T) {
	async, _ := newTestAsync(t)
	ctx := context.Background()

	if err := async.Close(ctx, time.Second); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := async.AddServer("irc.example.net", 6667, "mynick", "", "", model.AuthNone, "", ""); !errors.Is(err, packdb.ErrClosed) {
		t.Errorf("AddServer() after Close error = %v, want ErrClosed", err)
	}
}

func TestAsyncController_CloseHonorsContext(t *testing.T) {
	async, ctrl := newTestAsync(t)

	block := newBlockingObserver()
	if err := ctrl.AddObserver(block); err != nil {
		t.Fatalf("AddObserver() error = %v", err)
	}

	f, err := async.AddServer("irc.example.net", 6667, "mynick", "", "", model.AuthNone, "", "")
	if err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	<-block.entered

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := async.Close(cancelled, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("Close() error = %v, want context.Canceled", err)
	}

	// An interrupted close leaves the underlying controller open.
	if ctrl.IsClosed() {
		t.Error("controller closed despite interrupted Close")
	}

	close(block.release)
	ctx := context.Background()
	if _, err := f.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}

	// A second close succeeds once the queue has drained.
	if err := async.Close(ctx, time.Second); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if !ctrl.IsClosed() {
		t.Error("controller not closed after second Close")
	}
}

func TestFuture_WaitHonorsContext(t *testing.T) {
	async, ctrl := newTestAsync(t)

	block := newBlockingObserver()
	if err := ctrl.AddObserver(block); err != nil {
		t.Fatalf("AddObserver() error = %v", err)
	}

	f, err := async.AddServer("irc.example.net", 6667, "mynick", "", "", model.AuthNone, "", "")
	if err != nil {
		t.Fatalf("AddServer() error = %v", err)
	}
	<-block.entered

	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}

	close(block.release)
	if _, err := f.Wait(context.Background()); err != nil {
		t.Errorf("Wait() after release error = %v", err)
	}

	if err := async.Close(context.Background(), time.Second); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
