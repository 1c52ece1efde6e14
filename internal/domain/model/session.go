package model

// State is the user's position in the relay workflow.
type State string

const (
	StateIdle                     State = "idle"
	StateAwaitingCompanySearch    State = "awaiting_company_search"
	StateAwaitingCompanySelection State = "awaiting_company_selection"
	StateAwaitingConfirmation     State = "awaiting_confirmation"
)

// QueuedMessage is one forwarded message waiting to be flushed.
// Immutable once created.
type QueuedMessage struct {
	Text            string `json:"text"`
	SenderUsername  string `json:"senderUsername,omitempty"`
	SenderFirstName string `json:"senderFirstName,omitempty"`
	SenderLastName  string `json:"senderLastName,omitempty"`
	ChatName        string `json:"chatName"`
	Date            int64  `json:"date"`
	MessageID       int    `json:"messageId"`
	HasMedia        bool   `json:"hasMedia,omitempty"`
	MediaType       string `json:"mediaType,omitempty"`
}

// CompanyRef is an ephemeral pointer into the CRM directory. The directory
// owns company identity; these are reconstructed on every lookup.
type CompanyRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Session is the per-user aggregate: workflow state plus the pending queue.
// It is read once at the start of an event and written back once at the end.
type Session struct {
	State               State           `json:"state"`
	MessageQueue        []QueuedMessage `json:"messageQueue"`
	SelectedCompanyID   string          `json:"selectedCompanyId,omitempty"`
	SelectedCompanyName string          `json:"selectedCompanyName,omitempty"`
	SearchResults       []CompanyRef    `json:"searchResults,omitempty"`
	RecentCompanies     []CompanyRef    `json:"recentCompanies,omitempty"`
}

func NewSession() *Session {
	return &Session{
		State:        StateIdle,
		MessageQueue: make([]QueuedMessage, 0, 4),
	}
}

// Enqueue appends a message. Arrival order is queue order.
func (s *Session) Enqueue(m QueuedMessage) {
	s.MessageQueue = append(s.MessageQueue, m)
}

// Reset returns the session to idle with everything cleared.
func (s *Session) Reset() {
	s.State = StateIdle
	s.MessageQueue = s.MessageQueue[:0]
	s.SelectedCompanyID = ""
	s.SelectedCompanyName = ""
	s.SearchResults = nil
	s.RecentCompanies = nil
}

// Select records the chosen company and moves to confirmation.
func (s *Session) Select(c CompanyRef) {
	s.SelectedCompanyID = c.ID
	s.SelectedCompanyName = c.Name
	s.State = StateAwaitingConfirmation
}

// ClearSelection drops the selected company and returns to the selection
// step. The selection keyboard is not reconstructed; the user re-runs /done.
func (s *Session) ClearSelection() {
	s.SelectedCompanyID = ""
	s.SelectedCompanyName = ""
	s.State = StateAwaitingCompanySelection
}

// FindCompany resolves an id against recent companies first, then the last
// search results. First match wins.
func (s *Session) FindCompany(id string) (CompanyRef, bool) {
	for _, c := range s.RecentCompanies {
		if c.ID == id {
			return c, true
		}
	}
	for _, c := range s.SearchResults {
		if c.ID == id {
			return c, true
		}
	}
	return CompanyRef{}, false
}
