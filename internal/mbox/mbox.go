// Package mbox splits and parses the mailbox-format patch blobs produced by
// git format-patch and by the GitHub patch media type. One blob holds one or
// more mails; each mail is one commit's patch.
package mbox

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/clyso/crt/internal/model"
)

// Info is the metadata parsed from one patch mail
type Info struct {
	Author           model.Author
	Date             time.Time
	Title            string
	Body             string
	SignedOffBy      []model.Author
	CherryPickedFrom []string
	Fixes            []string
}

var (
	subjectRE     = regexp.MustCompile(`^\[PATCH[^\]]*\]\s*`)
	signedOffRE   = regexp.MustCompile(`^[sS]igned-[oO]ff-[bB]y:\s+(.*)\s+<(.*)>$`)
	cherryPickRE  = regexp.MustCompile(`\(cherry picked from commit ([0-9a-fA-F]+)\)`)
	fixesRE       = regexp.MustCompile(`^(?:[fF]ixes|[rR]esolves):\s*(.*)$`)
	diffDividerRE = regexp.MustCompile(`^---\s*$`)
)

// Split divides an mbox stream into its mails. A mail starts at a "From "
// divider line immediately followed by a "From:" header.
func Split(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty patch blob")
	}
	if !bytes.HasPrefix(data, []byte("From ")) {
		return nil, fmt.Errorf("patch blob does not start with an mbox divider")
	}

	lines := bytes.SplitAfter(data, []byte("\n"))
	var (
		mails   [][]byte
		current []byte
	)
	for i, line := range lines {
		if isDivider(lines, i) && len(current) > 0 {
			mails = append(mails, current)
			current = nil
		}
		current = append(current, line...)
	}
	if len(bytes.TrimSpace(current)) > 0 {
		mails = append(mails, current)
	}
	return mails, nil
}

// isDivider reports whether lines[i] opens a new mail
func isDivider(lines [][]byte, i int) bool {
	if !bytes.HasPrefix(lines[i], []byte("From ")) {
		return false
	}
	return i+1 < len(lines) && bytes.HasPrefix(lines[i+1], []byte("From:"))
}

// Count returns the number of mails in the blob
func Count(data []byte) (int, error) {
	mails, err := Split(data)
	if err != nil {
		return 0, err
	}
	return len(mails), nil
}

// Parse extracts the patch metadata from a single mail. The body is cut at
// the "---" diffstat divider; trailer lines (Signed-off-by, cherry-pick,
// Fixes/Resolves) terminate the description.
func Parse(msg []byte) (Info, error) {
	// Drop the mbox divider line, net/mail wants headers first.
	if bytes.HasPrefix(msg, []byte("From ")) {
		if idx := bytes.IndexByte(msg, '\n'); idx >= 0 {
			msg = msg[idx+1:]
		}
	}

	m, err := mail.ReadMessage(bytes.NewReader(msg))
	if err != nil {
		return Info{}, fmt.Errorf("malformed patch headers: %w", err)
	}

	addr, err := mail.ParseAddress(m.Header.Get("From"))
	if err != nil {
		return Info{}, fmt.Errorf("malformed patch author: %w", err)
	}

	date, err := m.Header.Date()
	if err != nil {
		return Info{}, fmt.Errorf("malformed patch date: %w", err)
	}

	title := subjectRE.ReplaceAllString(m.Header.Get("Subject"), "")
	if title == "" {
		return Info{}, fmt.Errorf("patch has no subject")
	}

	body, err := io.ReadAll(m.Body)
	if err != nil {
		return Info{}, fmt.Errorf("reading patch body: %w", err)
	}

	info := Info{
		Author: model.Author{Name: addr.Name, Email: addr.Address},
		Date:   date,
		Title:  title,
	}
	parseBody(&info, body)
	return info, nil
}

// parseBody fills the description and trailers from the commit message part
// of the mail body
func parseBody(info *Info, body []byte) {
	var (
		desc      []string
		endOfDesc bool
	)
	for _, line := range strings.Split(string(body), "\n") {
		if diffDividerRE.MatchString(line) {
			break
		}
		switch {
		case signedOffRE.MatchString(line):
			m := signedOffRE.FindStringSubmatch(line)
			info.SignedOffBy = append(info.SignedOffBy, model.Author{Name: m[1], Email: m[2]})
			endOfDesc = true
		case cherryPickRE.MatchString(line):
			m := cherryPickRE.FindStringSubmatch(line)
			info.CherryPickedFrom = append(info.CherryPickedFrom, m[1])
			endOfDesc = true
		case fixesRE.MatchString(line):
			m := fixesRE.FindStringSubmatch(line)
			info.Fixes = append(info.Fixes, m[1])
			endOfDesc = true
		case !endOfDesc:
			desc = append(desc, line)
		}
	}
	info.Body = strings.TrimSpace(strings.Join(desc, "\n"))
}

// ParseAll splits a blob and parses every mail in order
func ParseAll(data []byte) ([]Info, error) {
	mails, err := Split(data)
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(mails))
	for i, m := range mails {
		info, err := Parse(m)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i+1, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
