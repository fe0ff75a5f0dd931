package inbox

import (
	"context"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/provider"
)

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// PollResultMsg is a tea.Msg delivered after each fetch-and-replace
// cycle. Messages replaces the held list wholesale.
type PollResultMsg struct {
	// Messages is the fetched list, in provider arrival order.
	Messages []model.Message

	// Manual marks a user-triggered refresh: it drives the refreshing
	// indicator and never a new-arrival notification.
	Manual bool

	// NewArrival is set when an automatic poll's count strictly
	// exceeded the previously held count. At most one per poll,
	// regardless of how many messages arrived.
	NewArrival bool

	// Unauthorized is set when the provider rejected the token. The
	// poll is not retried; the session must be rotated.
	Unauthorized bool

	// Err holds any other fetch failure.
	Err error
}

// DetailResultMsg is a tea.Msg delivered when a single message's full
// detail has been fetched.
type DetailResultMsg struct {
	// Gen is the request generation; stale generations are discarded
	// by the receiver.
	Gen int

	Message *model.Message
	Err     error
}

// Synchronizer keeps the local message list consistent with the
// provider on a fixed cadence while the home view is active. It is
// started on entering the authenticated/home state and stopped on
// leaving it; exactly one polling loop exists at a time.
type Synchronizer struct {
	api      provider.API
	tokenFn  func() string
	interval time.Duration

	resultCh  chan PollResultMsg
	refreshCh chan struct{}

	mu        gosync.Mutex
	stopCh    chan struct{}
	running   bool
	heldCount int

	// deadToken remembers a token the provider already rejected, so one
	// expired token yields exactly one Unauthorized result no matter how
	// many polls race in before rotation lands.
	deadToken string
}

// New creates a Synchronizer. tokenFn supplies the active session's
// bearer token; an empty token suspends polling until rotation finishes.
func New(api provider.API, tokenFn func() string, interval time.Duration) *Synchronizer {
	return &Synchronizer{
		api:       api,
		tokenFn:   tokenFn,
		interval:  interval,
		resultCh:  make(chan PollResultMsg, 16),
		refreshCh: make(chan struct{}, 1),
	}
}

// Start launches the polling loop. Calling Start while running is a
// no-op, so exactly one loop exists at a time. Results are delivered
// through the subscription established by Subscribe.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go s.pollLoop(stopCh)
}

// Subscribe returns a tea.Cmd that delivers the next PollResultMsg to
// the Bubble Tea runtime. Arm it once at startup and re-arm with
// WaitForNextResult after each received result; the subscription spans
// Start/Stop cycles.
func (s *Synchronizer) Subscribe() tea.Cmd {
	return s.waitForResult()
}

// Stop tears down the polling loop. The synchronizer can be started
// again later; each run gets its own stop channel.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// Refresh triggers an immediate manual poll. Identical fetch-and-replace
// semantics to the automatic poll, but the result is flagged Manual.
func (s *Synchronizer) Refresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
		// A refresh is already queued.
	}
}

// SetHeldCount records the current size of the held list. The owner of
// the list calls this after local mutations (local delete, session
// replacement) so new-arrival detection compares against what is
// actually held.
func (s *Synchronizer) SetHeldCount(n int) {
	s.mu.Lock()
	s.heldCount = n
	s.mu.Unlock()
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll
// result. Call it after processing a PollResultMsg to keep listening.
func (s *Synchronizer) WaitForNextResult() tea.Cmd {
	return s.waitForResult()
}

// LoadDetail returns a tea.Cmd that fetches the full detail for one
// message. gen tags the request so a stale response can be discarded
// if the user has since navigated elsewhere.
func (s *Synchronizer) LoadDetail(id string, gen int) tea.Cmd {
	api := s.api
	token := s.tokenFn()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		msg, err := api.Message(ctx, token, id)
		if err != nil {
			return DetailResultMsg{Gen: gen, Err: err}
		}
		return DetailResultMsg{Gen: gen, Message: msg}
	}
}

// pollLoop runs one run's polling loop: an immediate fetch, then the
// fixed cadence, interleaved with manual refresh triggers.
func (s *Synchronizer) pollLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.fetchAndPublish(false)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.fetchAndPublish(false)
		case <-s.refreshCh:
			s.fetchAndPublish(true)
		}
	}
}

// fetchAndPublish performs one fetch-and-replace cycle and publishes
// the result. An unauthorized response is never retried here: it is
// flagged for the session manager to rotate.
func (s *Synchronizer) fetchAndPublish(manual bool) {
	token := s.tokenFn()
	if token == "" {
		// Session rotation in progress; skip this cycle.
		return
	}

	s.mu.Lock()
	alreadyDead := token == s.deadToken
	s.mu.Unlock()
	if alreadyDead {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	msgs, err := s.api.Messages(ctx, token, 1)
	if err != nil {
		if provider.IsAuthError(err) {
			s.mu.Lock()
			first := token != s.deadToken
			s.deadToken = token
			s.mu.Unlock()
			if first {
				s.publish(PollResultMsg{Manual: manual, Unauthorized: true})
			}
			return
		}
		log.Printf("inbox: poll failed: %v", err)
		s.publish(PollResultMsg{Manual: manual, Err: err})
		return
	}

	s.mu.Lock()
	newArrival := !manual && len(msgs) > s.heldCount
	s.heldCount = len(msgs)
	s.deadToken = ""
	s.mu.Unlock()

	s.publish(PollResultMsg{
		Messages:   msgs,
		Manual:     manual,
		NewArrival: newArrival,
	})
}

// publish sends a result without blocking the poll loop.
func (s *Synchronizer) publish(msg PollResultMsg) {
	select {
	case s.resultCh <- msg:
	default:
		// Drop if the UI is not draining results.
	}
}

// waitForResult returns a tea.Cmd that waits for the next result.
func (s *Synchronizer) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-s.resultCh
		if !ok {
			return nil
		}
		return result
	}
}
