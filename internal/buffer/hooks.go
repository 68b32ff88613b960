package buffer

// Hook names run by the Manager.
const (
	HookStatusBarText         = "status-bar-text"
	HookTerminalTitleText     = "terminal-title-text"
	HookExtraContactAddresses = "extra-contact-addresses"
)

// HookDocs describes the hooks above for the hook listing.
var HookDocs = map[string]string{
	HookStatusBarText: `Sets the status bar. The default status bar contains the mode name, the
buffer title, and the mode status. Called at least once per keystroke.

Variables:
         num_inbox: number of messages in inbox
  num_inbox_unread: total number of messages marked as unread
         num_total: total number of messages in the index
          num_spam: total number of messages marked as spam
             title: title of the current buffer
              mode: current mode name
            status: current mode status
Return value: a string to be used as the status bar.`,
	HookTerminalTitleText: `Sets the title of the terminal window. Called at least once per keystroke.

Variables: the same as status-bar-text.
Return value: a string to be used as the terminal title.`,
	HookExtraContactAddresses: `A list of extra addresses to propose for tab completion when entering an
email address. Plain addresses or "User Name <email@domain.tld>" entries.

Variables: none
Return value: a table of address strings.`,
}

// Hooks runs named extension hooks.
type Hooks interface {
	// Enabled reports whether a hook with this name is installed.
	Enabled(name string) bool
	// Run executes the hook with vars as its globals and returns its
	// result, nil when it returned nothing.
	Run(name string, vars map[string]any) (any, error)
}

// Counts are the message totals offered to status hooks.
type Counts struct {
	Inbox       int
	InboxUnread int
	Total       int
	Spam        int
}

// Counter supplies Counts.
type Counter interface {
	Counts() Counts
}

// ContactSource supplies addresses for address completion.
type ContactSource interface {
	IsContact(addr string) bool
	// Addresses lists recent and known addresses, best first.
	Addresses() []string
}

// LabelSource supplies labels for label completion.
type LabelSource interface {
	// UserLabels are the labels the user may apply.
	UserLabels() []string
	// Reserved are labels managed by the system.
	Reserved() []string
}

func (m *Manager) runHook(name string, vars func() map[string]any) (any, bool) {
	if m.hooks == nil || !m.hooks.Enabled(name) {
		return nil, false
	}
	v, err := m.hooks.Run(name, vars())
	if err != nil {
		m.log.Warn("hook %s: %v", name, err)
		return nil, false
	}
	return v, v != nil
}

// runStringHook runs a status or title hook. Both run inside draws.
func (m *Manager) runStringHook(name string, vars func() map[string]any) (string, bool) {
	m.drawHooks.Add(1)
	defer m.drawHooks.Add(-1)
	v, ok := m.runHook(name, vars)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m *Manager) counts() Counts {
	if m.counter == nil {
		return Counts{}
	}
	return m.counter.Counts()
}
