package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/clitheme/clitheme/internal/ir"
	"github.com/clitheme/clitheme/internal/matcher"
	"github.com/clitheme/clitheme/internal/pcre"
)

// BadPatternError is raised by AddSubstEntry when a rule's
// match_pattern or, for regex rules, its substitute template fails to
// compile/expand.
type BadPatternError struct {
	Pattern string
	Reason  string
}

func (e *BadPatternError) Error() string {
	return fmt.Sprintf("bad pattern %q: %s", e.Pattern, e.Reason)
}

// ErrVersionMismatch is returned by AddSubstEntry when the store was
// opened against an incompatible schema version; per spec §7 this is a
// fatal compile-time condition, never a silent rebuild.
var ErrVersionMismatch = errors.New("rule store: schema version mismatch, repair or remove the database")

// normalizeCommand collapses internal runs of 2+ spaces to one and
// strips leading/trailing whitespace, per spec §4.5 step 3.
func normalizeCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	return regexp.MustCompile(`[ \t]{2,}`).ReplaceAllString(cmd, " ")
}

// AddSubstEntry validates and inserts rule, following spec §4.5's
// insertion protocol: for each effective command (or a single null
// entry when EffectiveCommand is empty and no per-command list is
// given), compute the dedup key, delete any existing row with that
// key (warning), then insert.
func (s *Store) AddSubstEntry(rule ir.Rule, effectiveCommands []string) ([]ir.Rule, error) {
	if s.VersionMismatch {
		return nil, ErrVersionMismatch
	}

	if _, err := pcre.Compile(rule.MatchPattern); err != nil {
		return nil, &BadPatternError{Pattern: rule.MatchPattern, Reason: err.Error()}
	}

	if rule.IsRegex {
		if err := validateReplacement(rule.SubstitutePattern); err != nil {
			return nil, &BadPatternError{Pattern: rule.SubstitutePattern, Reason: err.Error()}
		}
	}

	commands := effectiveCommands
	if len(commands) == 0 {
		commands = []string{""}
	}

	var inserted []ir.Rule
	for i, cmd := range commands {
		r := rule
		if i > 0 {
			// Each row needs its own primary key.
			r.ID = uuid.New().String()
		}
		r.EffectiveCommand = normalizeCommand(cmd)
		if err := s.insertOne(r); err != nil {
			return inserted, err
		}
		inserted = append(inserted, r)
	}
	return inserted, nil
}

// validateReplacement runs a test expansion of template against an
// empty subject, matching spec §3.4's "replacement templates are
// validated on insertion" invariant.
func validateReplacement(template string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("replacement template panicked: %v", r)
		}
	}()
	empty := pcre.Match{Groups: []string{""}}
	pcre.ExpandReplacement(template, empty)
	return nil
}

func (s *Store) insertOne(r ir.Rule) error {
	key := r.Key()

	res, err := s.db.Exec(`
		DELETE FROM rules WHERE
			match_pattern = ? AND
			IFNULL(effective_command, '') = ? AND
			command_is_regex = ? AND
			IFNULL(effective_locale, '') = ? AND
			stdout_stderr_only = ? AND
			is_regex = ?`,
		key.MatchPattern, key.EffectiveCommand, boolInt(key.CommandIsRegex),
		key.EffectiveLocale, int(key.StdoutStderrOnly), boolInt(key.IsRegex))
	if err != nil {
		return fmt.Errorf("dedup delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Warn("overwriting existing rule with matching dedup key", "match_pattern", r.MatchPattern)
	}

	_, err = s.db.Exec(`
		INSERT INTO rules (
			id, match_pattern, match_is_multiline, substitute_pattern, is_regex,
			effective_locale, effective_command, command_match_strictness,
			command_is_regex, foreground_only, end_match_here, stdout_stderr_only,
			unique_id, file_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.MatchPattern, boolInt(r.MatchIsMultiline), r.SubstitutePattern, boolInt(r.IsRegex),
		nullable(r.EffectiveLocale), nullable(r.EffectiveCommand), int(r.CommandMatchStrictness),
		boolInt(r.CommandIsRegex), boolInt(r.ForegroundOnly), boolInt(r.EndMatchHere), int(r.StdoutStderrOnly),
		r.UniqueID, r.FileID)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// FetchSubstrules implements spec §4.5's fetch protocol: for each
// distinct unique_id, try the locale candidates in order and finally
// the default (null) locale; the first candidate yielding any rows
// wins for that id. Surviving rows are filtered through the command
// matcher when both command and the rule's EffectiveCommand are set.
func (s *Store) FetchSubstrules(command string, locales []string) ([]ir.Rule, error) {
	if s.VersionMismatch {
		return nil, nil
	}

	ids, err := s.distinctUniqueIDs()
	if err != nil {
		return nil, err
	}

	var out []ir.Rule
	for _, id := range ids {
		rows, err := s.rulesForID(id, locales)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if command != "" && r.EffectiveCommand != "" {
				if !matcher.Match(r.EffectiveCommand, command, r.CommandMatchStrictness, r.CommandIsRegex) {
					continue
				}
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) distinctUniqueIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT unique_id FROM rules ORDER BY unique_id`)
	if err != nil {
		return nil, fmt.Errorf("list unique ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rulesForID tries each locale candidate in order, then the default
// (NULL) locale, returning the rows for the first candidate with any
// matches.
func (s *Store) rulesForID(uniqueID string, locales []string) ([]ir.Rule, error) {
	candidates := append(append([]string{}, locales...), "")
	for _, loc := range candidates {
		rows, err := s.queryByLocale(uniqueID, loc)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}

func (s *Store) queryByLocale(uniqueID, locale string) ([]ir.Rule, error) {
	var rows *sql.Rows
	var err error
	if locale == "" {
		rows, err = s.db.Query(`SELECT * FROM rules WHERE unique_id = ? AND effective_locale IS NULL`, uniqueID)
	} else {
		rows, err = s.db.Query(`SELECT * FROM rules WHERE unique_id = ? AND effective_locale = ?`, uniqueID, locale)
	}
	if err != nil {
		return nil, fmt.Errorf("query rules for %q locale %q: %w", uniqueID, locale, err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows *sql.Rows) ([]ir.Rule, error) {
	var out []ir.Rule
	for rows.Next() {
		var r ir.Rule
		var effLocale, effCommand sql.NullString
		var matchMulti, isRegex, cmdRegex, fgOnly, endHere int
		var strictness, stdoutStderr int
		if err := rows.Scan(
			&r.ID, &r.MatchPattern, &matchMulti, &r.SubstitutePattern, &isRegex,
			&effLocale, &effCommand, &strictness,
			&cmdRegex, &fgOnly, &endHere, &stdoutStderr,
			&r.UniqueID, &r.FileID,
		); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.MatchIsMultiline = matchMulti != 0
		r.IsRegex = isRegex != 0
		r.CommandIsRegex = cmdRegex != 0
		r.ForegroundOnly = fgOnly != 0
		r.EndMatchHere = endHere != 0
		r.CommandMatchStrictness = ir.CommandStrictness(strictness)
		r.StdoutStderrOnly = ir.StreamScope(stdoutStderr)
		r.EffectiveLocale = effLocale.String
		r.EffectiveCommand = effCommand.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
