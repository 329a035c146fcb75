// Package limiter conta usos diários de ações por grupo, persistidos em sqlite.
package limiter

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sasha-s/go-deadlock"
	_ "modernc.org/sqlite"
)

// MSK é o fuso usado para virar o dia (UTC+3)
var MSK = time.FixedZone("MSK", 3*3600)

// Group é um limite diário compartilhado por várias ações
type Group struct {
	Name    string
	Limit   int
	Actions []string
}

// Stat é o uso de um grupo no dia atual
type Stat struct {
	Group     string
	Used      int
	Limit     int
	Remaining int
}

// Store guarda os contadores por (dia, grupo)
type Store struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time

	mu       deadlock.Mutex
	groups   map[string]Group
	byAction map[string]string
}

const schema = `CREATE TABLE IF NOT EXISTS usage (
	day   TEXT NOT NULL,
	grp   TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (day, grp)
)`

// Open abre (ou cria) o banco em path. Use ":memory:" para um banco temporário.
func Open(path string, groups []Group, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create usage table: %w", err)
	}

	s := &Store{
		db:       db,
		log:      log,
		now:      time.Now,
		groups:   make(map[string]Group, len(groups)),
		byAction: make(map[string]string),
	}
	for _, g := range groups {
		s.groups[g.Name] = g
		for _, a := range g.Actions {
			s.byAction[a] = g.Name
		}
	}
	return s, nil
}

// SetClock troca o relógio (testes)
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) day() string {
	return s.now().In(MSK).Format("2006-01-02")
}

// CanUse informa se a ação ainda tem usos hoje. Ações sem grupo sempre podem.
// Erro no banco libera a ação.
func (s *Store) CanUse(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.byAction[action]
	if !ok {
		return true
	}
	used, err := s.used(name)
	if err != nil {
		s.log.Error("usage lookup failed", "action", action, "err", err)
		return true
	}
	return used < s.groups[name].Limit
}

// RecordUsage soma um uso ao grupo da ação
func (s *Store) RecordUsage(action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.byAction[action]
	if !ok {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO usage (day, grp, count) VALUES (?, ?, 1)
		ON CONFLICT(day, grp) DO UPDATE SET count = count + 1`, s.day(), name)
	if err != nil {
		return fmt.Errorf("record usage %s: %w", action, err)
	}

	used, err := s.used(name)
	if err == nil && used >= s.groups[name].Limit {
		s.log.Warn("usage limit reached", "group", name, "used", used, "limit", s.groups[name].Limit)
	}
	return nil
}

// Used retorna quantos usos o grupo teve hoje
func (s *Store) Used(group string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used(group)
}

func (s *Store) used(group string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT count FROM usage WHERE day = ? AND grp = ?", s.day(), group).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query usage %s: %w", group, err)
	}
	return n, nil
}

// Stats retorna o uso de hoje de cada grupo, ordenado por nome
func (s *Store) Stats() ([]Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Stat, 0, len(names))
	for _, name := range names {
		used, err := s.used(name)
		if err != nil {
			return nil, err
		}
		limit := s.groups[name].Limit
		out = append(out, Stat{
			Group:     name,
			Used:      used,
			Limit:     limit,
			Remaining: max(0, limit-used),
		})
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
