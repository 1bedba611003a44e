package models

import (
	"net/url"
	"strings"
	"time"
)

// SyncStatus is the user-visible synchronizer state.
type SyncStatus struct {
	QueueLength  int
	LastSyncTime time.Time
	IsOnline     bool
	IsSyncing    bool
	// Abandoned counts queue items dropped after exhausting their retries.
	Abandoned int
}

// Links holds the shareable URLs of a menu.
type Links struct {
	View string
	Edit string
}

// ShareLinks builds the view and edit links of m. The edit link is empty
// when the edit key is unknown.
func ShareLinks(m *Menu, baseURL string) Links {
	base := strings.TrimRight(baseURL, "/")
	l := Links{View: base + "/menu/" + url.PathEscape(m.ShortID)}
	if m.EditKey != "" {
		l.Edit = l.View + "/edit?key=" + url.QueryEscape(m.EditKey)
	}
	return l
}
