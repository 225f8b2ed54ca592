package packdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"packdb/internal/model"
	"packdb/internal/validate"
)

// AsyncController wraps one Controller with an unbounded FIFO task
// queue drained by a single worker goroutine, so operations execute in
// exactly the order they were submitted. Each method re-runs the same
// validation its synchronous counterpart would, on the caller's
// goroutine, and fails fast without consuming a queue slot; valid
// calls return a Future immediately.
//
// Ordering holds only per AsyncController instance. Two wrappers
// around the same Controller interleave at the Controller's mutex like
// any other pair of callers.
type AsyncController struct {
	ctrl   *Controller
	logger Logger

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	closing bool

	done chan struct{} // closed when the worker exits
}

// NewAsyncController starts the worker for the given controller. A nil
// logger disables logging.
func NewAsyncController(ctrl *Controller, logger Logger) *AsyncController {
	if logger == nil {
		logger = NewNopLogger()
	}
	a := &AsyncController{
		ctrl:   ctrl,
		logger: logger,
		done:   make(chan struct{}),
	}
	a.cond = sync.NewCond(&a.mu)
	go a.work()
	return a
}

// work drains the queue until Close stops intake and the queue is
// empty. One task runs at a time, in submission order.
func (a *AsyncController) work() {
	defer close(a.done)
	for {
		a.mu.Lock()
		for len(a.tasks) == 0 && !a.closing {
			a.cond.Wait()
		}
		if len(a.tasks) == 0 {
			a.mu.Unlock()
			return
		}
		task := a.tasks[0]
		a.tasks = a.tasks[1:]
		a.mu.Unlock()
		task()
	}
}

// submit appends a task to the queue.
func (a *AsyncController) submit(task func()) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closing {
		return ErrClosed
	}
	a.tasks = append(a.tasks, task)
	a.cond.Signal()
	return nil
}

// enqueue wraps run in a Future and submits it. The Future resolves
// with run's result unless it was cancelled while still queued.
func enqueue[T any](a *AsyncController, run func() (T, error)) (*Future[T], error) {
	f := newFuture[T]()
	err := a.submit(func() {
		if !f.begin() {
			return
		}
		f.resolve(run())
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// enqueueVoid is enqueue for operations without a result.
func enqueueVoid(a *AsyncController, run func() error) (*Future[struct{}], error) {
	return enqueue(a, func() (struct{}, error) {
		return struct{}{}, run()
	})
}

// AddObserver schedules the registration as a task of its own, so the
// observer only sees changes submitted after this call.
func (a *AsyncController) AddObserver(obs Observer) (*Future[struct{}], error) {
	if obs == nil {
		return nil, fmt.Errorf("%w: observer must not be nil", validate.ErrInvalid)
	}
	return enqueueVoid(a, func() error { return a.ctrl.AddObserver(obs) })
}

// RemoveObserver schedules the removal as a task of its own, so the
// observer still sees changes submitted before this call.
func (a *AsyncController) RemoveObserver(obs Observer) (*Future[struct{}], error) {
	if obs == nil {
		return nil, fmt.Errorf("%w: observer must not be nil", validate.ErrInvalid)
	}
	return enqueueVoid(a, func() error { return a.ctrl.RemoveObserver(obs) })
}

func (a *AsyncController) AddServer(host string, port int, nick, user, real string, auth model.AuthMode, userPassword, password string) (*Future[struct{}], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.Nickname(nick); err != nil {
		return nil, err
	}
	if err := validate.AuthPassword(auth, userPassword); err != nil {
		return nil, err
	}
	a.logger.Debug("submitting add server", "host", host)
	return enqueueVoid(a, func() error {
		return a.ctrl.AddServer(host, port, nick, user, real, auth, userPassword, password)
	})
}

func (a *AsyncController) AddChannel(host, name, password string) (*Future[struct{}], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(name); err != nil {
		return nil, err
	}
	a.logger.Debug("submitting add channel", "host", host, "channel", name)
	return enqueueVoid(a, func() error { return a.ctrl.AddChannel(host, name, password) })
}

func (a *AsyncController) AddBot(host, channel, name string, listEnabled bool) (*Future[struct{}], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(name); err != nil {
		return nil, err
	}
	a.logger.Debug("submitting add bot", "host", host, "channel", channel, "bot", name)
	return enqueueVoid(a, func() error { return a.ctrl.AddBot(host, channel, name, listEnabled) })
}

func (a *AsyncController) UpdateOrAddPack(host, channel, bot string, number int, file, size string, introduceBot bool) (*Future[struct{}], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	if err := validate.FileName(file); err != nil {
		return nil, err
	}
	a.logger.Debug("submitting pack upsert", "host", host, "channel", channel, "bot", bot, "number", number)
	return enqueueVoid(a, func() error {
		return a.ctrl.UpdateOrAddPack(host, channel, bot, number, file, size, introduceBot)
	})
}

func (a *AsyncController) GetServer(host string) (*Future[*model.Server], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	return enqueue(a, func() (*model.Server, error) { return a.ctrl.GetServer(host) })
}

func (a *AsyncController) GetChannel(host, channel string) (*Future[*model.Channel], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	return enqueue(a, func() (*model.Channel, error) { return a.ctrl.GetChannel(host, channel) })
}

func (a *AsyncController) GetBot(host, channel, bot string) (*Future[*model.Bot], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	return enqueue(a, func() (*model.Bot, error) { return a.ctrl.GetBot(host, channel, bot) })
}

func (a *AsyncController) GetPack(host, channel, bot string, number int) (*Future[*model.Pack], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	return enqueue(a, func() (*model.Pack, error) { return a.ctrl.GetPack(host, channel, bot, number) })
}

func (a *AsyncController) GetServerList() (*Future[[]*model.Server], error) {
	return enqueue(a, func() ([]*model.Server, error) { return a.ctrl.GetServerList() })
}

func (a *AsyncController) FindPack(term string) (*Future[[]*model.PackMatch], error) {
	if err := validate.SearchTerm(term); err != nil {
		return nil, err
	}
	return enqueue(a, func() ([]*model.PackMatch, error) { return a.ctrl.FindPack(term) })
}

func (a *AsyncController) FindPackOnServer(host, term string) (*Future[[]*model.PackMatch], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.SearchTerm(term); err != nil {
		return nil, err
	}
	return enqueue(a, func() ([]*model.PackMatch, error) { return a.ctrl.FindPackOnServer(host, term) })
}

func (a *AsyncController) FindPackInChannel(host, channel, term string) (*Future[[]*model.PackMatch], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.SearchTerm(term); err != nil {
		return nil, err
	}
	return enqueue(a, func() ([]*model.PackMatch, error) { return a.ctrl.FindPackInChannel(host, channel, term) })
}

func (a *AsyncController) FindPackByBot(host, channel, bot, term string) (*Future[[]*model.PackMatch], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	if err := validate.SearchTerm(term); err != nil {
		return nil, err
	}
	return enqueue(a, func() ([]*model.PackMatch, error) { return a.ctrl.FindPackByBot(host, channel, bot, term) })
}

func (a *AsyncController) SetServerIdentity(host, nick, user, real string, auth model.AuthMode, userPassword string) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.Nickname(nick); err != nil {
		return nil, err
	}
	if err := validate.AuthPassword(auth, userPassword); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) {
		return a.ctrl.SetServerIdentity(host, nick, user, real, auth, userPassword)
	})
}

func (a *AsyncController) SetServerPort(host string, port int) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.SetServerPort(host, port) })
}

func (a *AsyncController) SetServerPassword(host, password string) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.SetServerPassword(host, password) })
}

func (a *AsyncController) SetChannelPassword(host, channel, password string) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.SetChannelPassword(host, channel, password) })
}

func (a *AsyncController) SetBotListEnabled(host, channel, bot string, listEnabled bool) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.SetBotListEnabled(host, channel, bot, listEnabled) })
}

func (a *AsyncController) SetBotChannel(host, oldChannel, newChannel, bot string) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(oldChannel); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(newChannel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.SetBotChannel(host, oldChannel, newChannel, bot) })
}

func (a *AsyncController) DeleteServer(host string) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.DeleteServer(host) })
}

func (a *AsyncController) DeleteChannel(host, channel string) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.DeleteChannel(host, channel) })
}

func (a *AsyncController) DeleteBot(host, channel, bot string) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.DeleteBot(host, channel, bot) })
}

func (a *AsyncController) DeletePack(host, channel, bot string, number int) (*Future[bool], error) {
	if _, err := validate.Host(host); err != nil {
		return nil, err
	}
	if err := validate.ChannelName(channel); err != nil {
		return nil, err
	}
	if err := validate.Nickname(bot); err != nil {
		return nil, err
	}
	return enqueue(a, func() (bool, error) { return a.ctrl.DeletePack(host, channel, bot, number) })
}

// Close stops accepting tasks, waits up to timeout for the queue to
// drain, then closes the underlying controller. Queued tasks that did
// not run before the deadline fail with ErrClosed once the worker
// reaches them. If ctx is cancelled during the wait, ctx.Err() is
// returned and the underlying controller stays open; completed results
// are unaffected and Close may be called again.
func (a *AsyncController) Close(ctx context.Context, timeout time.Duration) error {
	a.mu.Lock()
	if !a.closing {
		a.closing = true
		a.cond.Broadcast()
	}
	a.mu.Unlock()

	a.logger.Info("draining task queue", "timeout", timeout)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-a.done:
	case <-timer.C:
		a.logger.Warn("queue did not drain before deadline")
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.ctrl.Close()
}
