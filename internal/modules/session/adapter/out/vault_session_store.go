package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"studyvault/internal/modules/session/domain"
	sessionout "studyvault/internal/modules/session/port/out"
	"studyvault/internal/platform/atomicfile"
	"studyvault/internal/platform/calendar"
	apperrors "studyvault/internal/platform/errors"
	"studyvault/internal/platform/filelock"
	"studyvault/internal/platform/logging"
	"studyvault/internal/platform/metrics"
	"studyvault/internal/platform/vaultpath"
)

const defaultMetadataReaders = 8

type VaultStoreOptions struct {
	Locks           *filelock.Manager
	Logger          *logging.Logger
	MetadataReaders int
}

// VaultSessionStore keeps one JSON file per session under a folder per date
// and a metadata.json index next to them. Every mutation of a date runs
// under that date's lock; reads take no lock and rely on atomic renames.
type VaultSessionStore struct {
	root    string
	locks   *filelock.Manager
	log     *logging.Logger
	readers int
}

func NewVaultSessionStore(root string, opts VaultStoreOptions) *VaultSessionStore {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	locks := opts.Locks
	if locks == nil {
		locks = filelock.NewManager(filelock.DefaultOptions(), log)
	}
	readers := opts.MetadataReaders
	if readers < 1 {
		readers = defaultMetadataReaders
	}
	return &VaultSessionStore{root: root, locks: locks, log: log.WithComponent("session_store"), readers: readers}
}

var _ sessionout.SessionStore = (*VaultSessionStore)(nil)

func (s *VaultSessionStore) Save(ctx context.Context, session domain.Session) (_ string, err error) {
	defer observe("save", time.Now(), &err)

	if err := session.Validate(); err != nil {
		return "", err
	}
	if _, err := calendar.Parse(session.Date); err != nil {
		return "", err
	}

	paths := vaultpath.ForDate(s.root, session.Date)
	if err := ensureDateFolders(paths); err != nil {
		return "", err
	}
	s.cleanupStale(paths)

	err = s.locks.WithLock(ctx, paths.LockFile, func(context.Context) error {
		return s.writeLocked(paths, session)
	})
	if err != nil {
		return "", err
	}
	return vaultpath.SessionFile(paths.SessionsFolder, session.ID), nil
}

// Update runs edit on the stored session and writes the result, all under
// the date lock. An edit returning domain.ErrUnchanged writes nothing.
func (s *VaultSessionStore) Update(ctx context.Context, date, sessionID string, edit func(*domain.Session) error) (_ domain.Session, err error) {
	defer observe("update", time.Now(), &err)

	if sessionID == "" {
		return domain.Session{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if _, err := calendar.Parse(date); err != nil {
		return domain.Session{}, err
	}
	paths := vaultpath.ForDate(s.root, date)
	if _, err := os.Stat(paths.DateFolder); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, fmt.Errorf("%w: session %s on %s", apperrors.ErrNotFound, sessionID, date)
		}
		return domain.Session{}, fmt.Errorf("stat date folder: %w", err)
	}
	s.cleanupStale(paths)

	var updated domain.Session
	err = s.locks.WithLock(ctx, paths.LockFile, func(context.Context) error {
		current, err := readSession(vaultpath.SessionFile(paths.SessionsFolder, sessionID))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: session %s on %s", apperrors.ErrNotFound, sessionID, date)
			}
			return err
		}
		if err := edit(&current); err != nil {
			if errors.Is(err, domain.ErrUnchanged) {
				updated = current
				return nil
			}
			return err
		}
		if current.ID != sessionID || current.Date != date {
			return fmt.Errorf("%w: an update cannot change session id or date", apperrors.ErrInvalidInput)
		}
		if err := current.Validate(); err != nil {
			return err
		}
		if err := s.writeLocked(paths, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return updated, nil
}

// writeLocked writes one session and its date index. The caller holds the
// date lock. An indexed session keeps its position in the index.
func (s *VaultSessionStore) writeLocked(paths vaultpath.DatePaths, session domain.Session) error {
	siblings, slot, err := s.reloadLocked(paths, session.ID)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteJSON(vaultpath.SessionFile(paths.SessionsFolder, session.ID), session); err != nil {
		return fmt.Errorf("write session %s: %w", session.ID, err)
	}
	if len(session.Attachments) > 0 {
		dir := vaultpath.AttachmentFolder(paths.AttachmentsFolder, session.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create attachment folder: %w", err)
		}
	}
	return s.writeMetadata(paths, session.Date, place(siblings, slot, session))
}

func (s *VaultSessionStore) Load(_ context.Context, date, sessionID string) (_ domain.Session, err error) {
	defer observe("load", time.Now(), &err)

	if sessionID == "" {
		return domain.Session{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if _, err := calendar.Parse(date); err != nil {
		return domain.Session{}, err
	}
	paths := vaultpath.ForDate(s.root, date)
	session, err := readSession(vaultpath.SessionFile(paths.SessionsFolder, sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, fmt.Errorf("%w: session %s on %s", apperrors.ErrNotFound, sessionID, date)
		}
		return domain.Session{}, err
	}
	return session, nil
}

// LoadDate is lenient: a missing folder or index yields no sessions, and
// listed files that are missing or unreadable are skipped with a warning.
func (s *VaultSessionStore) LoadDate(_ context.Context, date string) (_ []domain.Session, err error) {
	defer observe("load_date", time.Now(), &err)

	if _, err := calendar.Parse(date); err != nil {
		return nil, err
	}
	paths := vaultpath.ForDate(s.root, date)
	log := s.log.WithDate(date)
	sessions := []domain.Session{}

	if _, err := os.Stat(paths.DateFolder); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sessions, nil
		}
		return nil, fmt.Errorf("stat date folder: %w", err)
	}

	meta, ok, err := readMetadata(paths.MetadataFile)
	if err != nil {
		log.Warn("ignoring unreadable metadata", "path", paths.MetadataFile, "error", err)
		return sessions, nil
	}
	if !ok {
		return sessions, nil
	}

	for _, id := range meta.SessionIDs {
		path := vaultpath.SessionFile(paths.SessionsFolder, id)
		session, err := readSession(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warn("indexed session file missing", "session_id", id, "path", path)
			} else {
				log.Warn("skipping unreadable session", "session_id", id, "path", path, "error", err)
			}
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Delete succeeds when the session or its whole date folder is already gone.
func (s *VaultSessionStore) Delete(ctx context.Context, date, sessionID string) (err error) {
	defer observe("delete", time.Now(), &err)

	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if _, err := calendar.Parse(date); err != nil {
		return err
	}
	paths := vaultpath.ForDate(s.root, date)
	if _, err := os.Stat(paths.DateFolder); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat date folder: %w", err)
	}
	s.cleanupStale(paths)

	return s.locks.WithLock(ctx, paths.LockFile, func(context.Context) error {
		remaining, _, err := s.reloadLocked(paths, sessionID)
		if err != nil {
			return err
		}
		if err := removeIfExists(vaultpath.SessionFile(paths.SessionsFolder, sessionID)); err != nil {
			return fmt.Errorf("remove session %s: %w", sessionID, err)
		}
		s.removeAttachmentFolder(vaultpath.AttachmentFolder(paths.AttachmentsFolder, sessionID), date)
		return s.writeMetadata(paths, date, remaining)
	})
}

// Move relocates a session to another date. Both date locks are taken in
// lexical order so concurrent moves cannot deadlock.
func (s *VaultSessionStore) Move(ctx context.Context, sessionID, fromDate, toDate string) (_ domain.Session, err error) {
	defer observe("move", time.Now(), &err)

	if sessionID == "" {
		return domain.Session{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	for _, d := range []string{fromDate, toDate} {
		if _, err := calendar.Parse(d); err != nil {
			return domain.Session{}, err
		}
	}
	if fromDate == toDate {
		return domain.Session{}, fmt.Errorf("%w: session is already on %s", apperrors.ErrInvalidInput, toDate)
	}

	from := vaultpath.ForDate(s.root, fromDate)
	to := vaultpath.ForDate(s.root, toDate)
	if _, err := os.Stat(from.DateFolder); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, fmt.Errorf("%w: session %s on %s", apperrors.ErrNotFound, sessionID, fromDate)
		}
		return domain.Session{}, fmt.Errorf("stat date folder: %w", err)
	}
	if err := ensureDateFolders(to); err != nil {
		return domain.Session{}, err
	}
	s.cleanupStale(from)
	s.cleanupStale(to)

	first, second := from.LockFile, to.LockFile
	if toDate < fromDate {
		first, second = second, first
	}

	var moved domain.Session
	err = s.locks.WithLock(ctx, first, func(ctx context.Context) error {
		return s.locks.WithLock(ctx, second, func(context.Context) error {
			oldPath := vaultpath.SessionFile(from.SessionsFolder, sessionID)
			session, err := readSession(oldPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("%w: session %s on %s", apperrors.ErrNotFound, sessionID, fromDate)
				}
				return err
			}
			fromSessions, _, err := s.reloadLocked(from, sessionID)
			if err != nil {
				return err
			}
			toSessions, toSlot, err := s.reloadLocked(to, sessionID)
			if err != nil {
				return err
			}

			oldAttachments := vaultpath.AttachmentFolder(from.AttachmentsFolder, sessionID)
			newAttachments := vaultpath.AttachmentFolder(to.AttachmentsFolder, sessionID)
			if _, err := os.Stat(oldAttachments); err == nil {
				if err := os.Rename(oldAttachments, newAttachments); err != nil {
					return fmt.Errorf("move attachments: %w", err)
				}
			}

			session.Date = toDate
			for i := range session.Attachments {
				name := session.Attachments[i].FileName
				if name == "" {
					name = filepath.Base(session.Attachments[i].Path)
				}
				session.Attachments[i].Path = filepath.Join(newAttachments, name)
				session.Attachments[i].RelativePath = vaultpath.RelativeAttachment(sessionID, name)
			}

			if err := atomicfile.WriteJSON(vaultpath.SessionFile(to.SessionsFolder, sessionID), session); err != nil {
				return fmt.Errorf("write session %s: %w", sessionID, err)
			}
			if err := s.writeMetadata(to, toDate, place(toSessions, toSlot, session)); err != nil {
				return err
			}
			if err := removeIfExists(oldPath); err != nil {
				return fmt.Errorf("remove old session file: %w", err)
			}
			if err := s.writeMetadata(from, fromDate, fromSessions); err != nil {
				return err
			}
			moved = session
			return nil
		})
	})
	if err != nil {
		return domain.Session{}, err
	}
	return moved, nil
}

// LoadMetadata reads a date index without locking. ok is false when the
// date has no index yet.
func (s *VaultSessionStore) LoadMetadata(_ context.Context, date string) (domain.Metadata, bool, error) {
	if _, err := calendar.Parse(date); err != nil {
		return domain.Metadata{}, false, err
	}
	return readMetadata(vaultpath.ForDate(s.root, date).MetadataFile)
}

// LoadMultipleMetadata returns the indexes that exist among dates. Missing
// and unreadable indexes are left out.
func (s *VaultSessionStore) LoadMultipleMetadata(ctx context.Context, dates []string) (map[string]domain.Metadata, error) {
	type found struct {
		meta domain.Metadata
		ok   bool
	}
	results := make([]found, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readers)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			meta, ok, err := s.LoadMetadata(gctx, date)
			if err != nil {
				if errors.Is(err, apperrors.ErrInvalidInput) {
					return err
				}
				s.log.WithDate(date).Warn("skipping unreadable metadata", "error", err)
				return nil
			}
			results[i] = found{meta: meta, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]domain.Metadata, len(dates))
	for i, date := range dates {
		if results[i].ok {
			out[date] = results[i].meta
		}
	}
	return out, nil
}

func (s *VaultSessionStore) ListDates(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(vaultpath.Root(s.root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list dates: %w", err)
	}
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := calendar.Parse(e.Name()); err != nil {
			continue
		}
		dates = append(dates, e.Name())
	}
	sort.Strings(dates)
	return dates, nil
}

// Repair rebuilds a date index from the session files on disk. It picks up
// files written by a save that crashed before its index update, drops index
// entries whose file is gone and deletes leftover temp files.
func (s *VaultSessionStore) Repair(ctx context.Context, date string) (_ domain.RepairReport, err error) {
	defer observe("repair", time.Now(), &err)

	report := domain.RepairReport{Date: date}
	if _, err := calendar.Parse(date); err != nil {
		return report, err
	}
	paths := vaultpath.ForDate(s.root, date)
	if _, err := os.Stat(paths.DateFolder); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, nil
		}
		return report, fmt.Errorf("stat date folder: %w", err)
	}
	if err := ensureDateFolders(paths); err != nil {
		return report, err
	}
	s.cleanupStale(paths)
	log := s.log.WithDate(date)

	err = s.locks.WithLock(ctx, paths.LockFile, func(context.Context) error {
		for _, dir := range []string{paths.DateFolder, paths.SessionsFolder} {
			n, err := removeTempFiles(dir)
			if err != nil {
				return err
			}
			report.TempRemoved += n
		}

		onDisk := map[string]domain.Session{}
		entries, err := os.ReadDir(paths.SessionsFolder)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		for _, e := range entries {
			id, ok := sessionIDFromFile(e.Name())
			if e.IsDir() || !ok {
				continue
			}
			session, err := readSession(filepath.Join(paths.SessionsFolder, e.Name()))
			if err != nil {
				log.Warn("leaving unreadable session out of index", "file", e.Name(), "error", err)
				report.Corrupt = append(report.Corrupt, id)
				continue
			}
			if session.ID != id {
				log.Warn("session id does not match file name", "file", e.Name(), "session_id", session.ID)
				session.ID = id
			}
			onDisk[id] = session
		}

		var indexed []string
		if meta, ok, err := readMetadata(paths.MetadataFile); err == nil && ok {
			indexed = meta.SessionIDs
		} else if err != nil {
			log.Warn("discarding unreadable metadata", "error", err)
		}

		var sessions []domain.Session
		seen := map[string]bool{}
		for _, id := range indexed {
			if seen[id] {
				continue
			}
			seen[id] = true
			session, ok := onDisk[id]
			if !ok {
				report.Dropped = append(report.Dropped, id)
				continue
			}
			sessions = append(sessions, session)
		}
		var recovered []string
		for id := range onDisk {
			if !seen[id] {
				recovered = append(recovered, id)
			}
		}
		sort.Strings(recovered)
		for _, id := range recovered {
			sessions = append(sessions, onDisk[id])
		}
		report.Recovered = recovered
		for _, session := range sessions {
			report.Indexed = append(report.Indexed, session.ID)
		}
		return s.writeMetadata(paths, date, sessions)
	})
	return report, err
}

// reloadLocked reads the sessions indexed for a date, leaving out skipID.
// slot is where skipID sat among the returned sessions, or -1 when it was
// not indexed. Unlike LoadDate it fails on unreadable data so a write never
// drops entries from the index it cannot parse.
func (s *VaultSessionStore) reloadLocked(paths vaultpath.DatePaths, skipID string) (_ []domain.Session, slot int, _ error) {
	slot = -1
	meta, ok, err := readMetadata(paths.MetadataFile)
	if err != nil {
		return nil, slot, err
	}
	if !ok {
		return nil, slot, nil
	}
	sessions := make([]domain.Session, 0, len(meta.SessionIDs))
	for _, id := range meta.SessionIDs {
		if id == skipID {
			if slot < 0 {
				slot = len(sessions)
			}
			continue
		}
		path := vaultpath.SessionFile(paths.SessionsFolder, id)
		session, err := readSession(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.log.Warn("dropping index entry without file", "path", path, "session_id", id)
				continue
			}
			return nil, slot, fmt.Errorf("reload session %s: %w", id, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, slot, nil
}

func (s *VaultSessionStore) writeMetadata(paths vaultpath.DatePaths, date string, sessions []domain.Session) error {
	meta, err := domain.BuildMetadata(date, sessions)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteJSON(paths.MetadataFile, meta); err != nil {
		return fmt.Errorf("write metadata for %s: %w", date, err)
	}
	return nil
}

func (s *VaultSessionStore) cleanupStale(paths vaultpath.DatePaths) {
	if _, err := s.locks.CleanupStale(paths.LockFile); err != nil {
		s.log.Warn("stale lock cleanup failed", "path", paths.LockFile, "error", err)
	}
}

// removeAttachmentFolder deletes the files directly inside dir and then
// dir itself. Nested folders are left in place.
func (s *VaultSessionStore) removeAttachmentFolder(dir, date string) {
	log := s.log.WithDate(date)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("read attachment folder failed", "path", dir, "error", err)
		}
		return
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			log.Warn("leaving nested folder in attachments", "path", path)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("remove attachment failed", "path", path, "error", err)
		}
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("attachment folder not removed", "path", dir, "error", err)
	}
}

func observe(op string, started time.Time, err *error) {
	metrics.ObserveStoreOp(op, started, *err)
}

// place inserts session at slot, or appends it when slot is -1.
func place(sessions []domain.Session, slot int, session domain.Session) []domain.Session {
	if slot < 0 || slot >= len(sessions) {
		return append(sessions, session)
	}
	sessions = append(sessions, domain.Session{})
	copy(sessions[slot+1:], sessions[slot:])
	sessions[slot] = session
	return sessions
}

func ensureDateFolders(paths vaultpath.DatePaths) error {
	for _, dir := range []string{paths.DateFolder, paths.SessionsFolder, paths.AttachmentsFolder} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func readSession(path string) (domain.Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Decode(raw)
}

func readMetadata(path string) (domain.Metadata, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Metadata{}, false, nil
		}
		return domain.Metadata{}, false, fmt.Errorf("read metadata: %w", err)
	}
	var meta domain.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return domain.Metadata{}, false, fmt.Errorf("%w: metadata %s: %v", apperrors.ErrCorrupted, path, err)
	}
	return meta, true, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func removeTempFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), atomicfile.TempSuffix) {
			continue
		}
		if err := removeIfExists(filepath.Join(dir, e.Name())); err != nil {
			return n, fmt.Errorf("remove temp file: %w", err)
		}
		n++
	}
	return n, nil
}

func sessionIDFromFile(name string) (string, bool) {
	if !strings.HasPrefix(name, "session-") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, "session-"), ".json")
	return id, id != ""
}
