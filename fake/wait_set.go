package fake

import (
	"time"

	"github.com/team-rocos/rclbridge/rcl"
)

// WaitSet is a native wait set. Action servers take three service slots
// and one timer slot each, left empty in the slot arrays.
type WaitSet struct {
	ctx             *Context
	initialized     bool
	sizes           rcl.WaitSetSizes
	subscriptions   []*Subscription
	guardConditions []*GuardCondition
	timers          []*Timer
	clients         []*Client
	services        []*Service
	actionServers   []*ActionServer

	ready       map[rcl.EntityKind][]bool
	serverReady map[*ActionServer]rcl.ActionServerReady
}

func (l *Library) WaitSetZero() rcl.Pointer {
	return &WaitSet{}
}

func (l *Library) WaitSetInit(ws, ctx rcl.Pointer, sizes rcl.WaitSetSizes) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetInit"); err != nil {
		return err
	}
	w, ok := ws.(*WaitSet)
	if !ok {
		return rcl.Errorf(rcl.RetInvalidArgument, "wait set is invalid")
	}
	if w.initialized {
		return rcl.Errorf(rcl.RetAlreadyInit, "wait set is already initialized")
	}
	c, err := l.context(ctx)
	if err != nil {
		return err
	}
	*w = WaitSet{ctx: c, initialized: true, sizes: sizes}
	l.live++
	return nil
}

func (l *Library) WaitSetFini(ws rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetFini"); err != nil {
		return err
	}
	w, ok := ws.(*WaitSet)
	if !ok {
		return rcl.Errorf(rcl.RetInvalidArgument, "wait set is invalid")
	}
	// Finalizing a zero-initialized wait set is allowed.
	if w.initialized {
		*w = WaitSet{}
		l.live--
	}
	return nil
}

func (l *Library) waitSet(ws rcl.Pointer) (*WaitSet, error) {
	w, ok := ws.(*WaitSet)
	if !ok || !w.initialized {
		return nil, rcl.Errorf(rcl.RetWaitSetInvalid, "wait set is invalid")
	}
	return w, nil
}

func (l *Library) WaitSetClear(ws rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetClear"); err != nil {
		return err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return err
	}
	w.subscriptions = w.subscriptions[:0]
	w.guardConditions = w.guardConditions[:0]
	w.timers = w.timers[:0]
	w.clients = w.clients[:0]
	w.services = w.services[:0]
	w.actionServers = w.actionServers[:0]
	w.ready = nil
	w.serverReady = nil
	return nil
}

func slotFull(n, capacity int, kind rcl.EntityKind) error {
	if n >= capacity {
		return rcl.Errorf(rcl.RetWaitSetFull, "%s set is full", kind)
	}
	return nil
}

func (l *Library) WaitSetAddSubscription(ws, subscription rcl.Pointer) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetAddSubscription"); err != nil {
		return 0, err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return 0, err
	}
	s, err := l.subscription(subscription)
	if err != nil {
		return 0, err
	}
	if err := slotFull(len(w.subscriptions), w.sizes.Subscriptions, rcl.EntitySubscription); err != nil {
		return 0, err
	}
	w.subscriptions = append(w.subscriptions, s)
	return len(w.subscriptions) - 1, nil
}

func (l *Library) WaitSetAddGuardCondition(ws, gc rcl.Pointer) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetAddGuardCondition"); err != nil {
		return 0, err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return 0, err
	}
	g, err := l.guardCondition(gc)
	if err != nil {
		return 0, err
	}
	if err := slotFull(len(w.guardConditions), w.sizes.GuardConditions, rcl.EntityGuardCondition); err != nil {
		return 0, err
	}
	w.guardConditions = append(w.guardConditions, g)
	return len(w.guardConditions) - 1, nil
}

func (l *Library) WaitSetAddTimer(ws, timer rcl.Pointer) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetAddTimer"); err != nil {
		return 0, err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return 0, err
	}
	t, err := l.timer(timer)
	if err != nil {
		return 0, err
	}
	if err := slotFull(len(w.timers), w.sizes.Timers, rcl.EntityTimer); err != nil {
		return 0, err
	}
	w.timers = append(w.timers, t)
	return len(w.timers) - 1, nil
}

func (l *Library) WaitSetAddClient(ws, client rcl.Pointer) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetAddClient"); err != nil {
		return 0, err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return 0, err
	}
	c, err := l.client(client)
	if err != nil {
		return 0, err
	}
	if err := slotFull(len(w.clients), w.sizes.Clients, rcl.EntityClient); err != nil {
		return 0, err
	}
	w.clients = append(w.clients, c)
	return len(w.clients) - 1, nil
}

func (l *Library) WaitSetAddService(ws, service rcl.Pointer) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetAddService"); err != nil {
		return 0, err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return 0, err
	}
	s, err := l.service(service)
	if err != nil {
		return 0, err
	}
	if err := slotFull(len(w.services), w.sizes.Services, rcl.EntityService); err != nil {
		return 0, err
	}
	w.services = append(w.services, s)
	return len(w.services) - 1, nil
}

func (l *Library) WaitSetAddActionServer(ws, server rcl.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetAddActionServer"); err != nil {
		return err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return err
	}
	s, err := l.actionServer(server)
	if err != nil {
		return err
	}
	if err := slotFull(len(w.services)+actionServerCounts.Services-1, w.sizes.Services, rcl.EntityService); err != nil {
		return err
	}
	if err := slotFull(len(w.timers)+actionServerCounts.Timers-1, w.sizes.Timers, rcl.EntityTimer); err != nil {
		return err
	}
	for i := 0; i < actionServerCounts.Services; i++ {
		w.services = append(w.services, nil)
	}
	for i := 0; i < actionServerCounts.Timers; i++ {
		w.timers = append(w.timers, nil)
	}
	w.actionServers = append(w.actionServers, s)
	return nil
}

func (w *WaitSet) empty() bool {
	return len(w.subscriptions)+len(w.guardConditions)+len(w.timers)+len(w.clients)+len(w.services) == 0
}

// collect records which entities are ready and reports whether any is.
// Triggered guard conditions are reset once reported.
func (w *WaitSet) collect(now time.Time) bool {
	found := false
	mark := func(ok bool) bool {
		found = found || ok
		return ok
	}
	w.ready = map[rcl.EntityKind][]bool{
		rcl.EntitySubscription:   make([]bool, len(w.subscriptions)),
		rcl.EntityGuardCondition: make([]bool, len(w.guardConditions)),
		rcl.EntityTimer:          make([]bool, len(w.timers)),
		rcl.EntityClient:         make([]bool, len(w.clients)),
		rcl.EntityService:        make([]bool, len(w.services)),
	}
	for i, s := range w.subscriptions {
		w.ready[rcl.EntitySubscription][i] = mark(s.valid && s.messages.Length() > 0)
	}
	for i, g := range w.guardConditions {
		w.ready[rcl.EntityGuardCondition][i] = mark(g.valid && g.triggered)
	}
	for i, t := range w.timers {
		w.ready[rcl.EntityTimer][i] = t != nil && mark(t.valid && t.ready(now))
	}
	for i, c := range w.clients {
		w.ready[rcl.EntityClient][i] = mark(c.valid && c.responses.Length() > 0)
	}
	for i, s := range w.services {
		w.ready[rcl.EntityService][i] = s != nil && mark(s.valid && s.requests.Length() > 0)
	}
	w.serverReady = make(map[*ActionServer]rcl.ActionServerReady, len(w.actionServers))
	for _, s := range w.actionServers {
		if !s.valid {
			continue
		}
		r := s.ready(now)
		w.serverReady[s] = r
		mark(r.Any())
	}
	if found {
		for i, g := range w.guardConditions {
			if w.ready[rcl.EntityGuardCondition][i] {
				g.triggered = false
			}
		}
	}
	return found
}

// nextDeadline returns the earliest time a timer or goal expiry in w
// becomes ready on its own.
func (w *WaitSet) nextDeadline() (time.Time, bool) {
	var next time.Time
	ok := false
	consider := func(at time.Time) {
		if !ok || at.Before(next) {
			next, ok = at, true
		}
	}
	for _, t := range w.timers {
		if t != nil && t.valid {
			consider(t.lastCall.Add(t.period))
		}
	}
	for _, s := range w.actionServers {
		if at, found := s.nextExpiry(); s.valid && found {
			consider(at)
		}
	}
	return next, ok
}

// Wait blocks until an entity in ws is ready or timeout elapses. A negative
// timeout waits forever, zero polls once.
func (l *Library) Wait(ws rcl.Pointer, timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("Wait"); err != nil {
		return err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return err
	}
	if w.empty() {
		return rcl.Errorf(rcl.RetWaitSetEmpty, "wait set is empty")
	}
	start := time.Now()
	for {
		if w.collect(l.now()) {
			return nil
		}
		sleep := time.Duration(-1)
		if timeout >= 0 {
			sleep = timeout - time.Since(start)
			if sleep <= 0 {
				return rcl.Errorf(rcl.RetTimeout, "wait timed out")
			}
		}
		if at, ok := w.nextDeadline(); ok {
			until := at.Sub(l.now())
			if until < 0 {
				until = 0
			}
			if sleep < 0 || until < sleep {
				sleep = until + time.Millisecond
			}
		}
		changed := l.changed
		l.mu.Unlock()
		if sleep < 0 {
			<-changed
		} else {
			timer := time.NewTimer(sleep)
			select {
			case <-changed:
			case <-timer.C:
			}
			timer.Stop()
		}
		l.mu.Lock()
	}
}

func (l *Library) WaitSetIsReady(ws rcl.Pointer, kind rcl.EntityKind, index int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.injected("WaitSetIsReady"); err != nil {
		return false, err
	}
	w, err := l.waitSet(ws)
	if err != nil {
		return false, err
	}
	var n int
	switch kind {
	case rcl.EntitySubscription:
		n = len(w.subscriptions)
	case rcl.EntityGuardCondition:
		n = len(w.guardConditions)
	case rcl.EntityTimer:
		n = len(w.timers)
	case rcl.EntityClient:
		n = len(w.clients)
	case rcl.EntityService:
		n = len(w.services)
	default:
		return false, rcl.Errorf(rcl.RetUnsupported, "%s entities are not supported", kind)
	}
	if index < 0 || index >= n {
		return false, rcl.Errorf(rcl.RetInvalidArgument, "%s index %d out of range [0, %d)", kind, index, n)
	}
	ready := w.ready[kind]
	return index < len(ready) && ready[index], nil
}
