package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"studyvault/internal/modules/attachment/domain"
	attachmentout "studyvault/internal/modules/attachment/port/out"
	"studyvault/internal/platform/clock"
	apperrors "studyvault/internal/platform/errors"
	"studyvault/internal/platform/id"
	"studyvault/internal/platform/logging"
	"studyvault/internal/platform/vaultpath"
)

type AttachmentService struct {
	root     string
	clock    clock.Clock
	ids      id.Generator
	files    attachmentout.FileStore
	pages    attachmentout.PageCounter
	launcher attachmentout.Launcher
	sessions attachmentout.SessionGateway
	log      *logging.Logger
}

type Options struct {
	Pages    attachmentout.PageCounter
	Launcher attachmentout.Launcher
	Logger   *logging.Logger
}

func NewAttachmentService(root string, clock clock.Clock, ids id.Generator, files attachmentout.FileStore, sessions attachmentout.SessionGateway, opts Options) *AttachmentService {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &AttachmentService{
		root:     root,
		clock:    clock,
		ids:      ids,
		files:    files,
		pages:    opts.Pages,
		launcher: opts.Launcher,
		sessions: sessions,
		log:      log.WithComponent("attachments"),
	}
}

func (s *AttachmentService) folder(date, sessionID string) string {
	return vaultpath.AttachmentFolder(vaultpath.ForDate(s.root, date).AttachmentsFolder, sessionID)
}

// Attach copies every source into the session's folder and records the
// descriptors. Copies are removed again when the session cannot be saved.
func (s *AttachmentService) Attach(ctx context.Context, date, sessionID string, sources []string) ([]domain.Descriptor, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no files to attach", apperrors.ErrInvalidInput)
	}
	if _, err := s.sessions.Load(ctx, date, sessionID); err != nil {
		return nil, err
	}

	folder := s.folder(date, sessionID)
	added := make([]domain.Descriptor, 0, len(sources))
	rollback := func() {
		for _, d := range added {
			if err := s.files.Remove(ctx, d.Path); err != nil {
				s.log.Warn("remove copied attachment", "path", d.Path, "error", err)
			}
		}
	}

	for _, src := range sources {
		desc, err := s.copyOne(ctx, folder, sessionID, src)
		if err != nil {
			rollback()
			return nil, err
		}
		added = append(added, desc)
	}

	err := s.sessions.Update(ctx, date, sessionID, func(current *attachmentout.SessionAttachments) error {
		current.Attachments = append(current.Attachments, added...)
		return nil
	})
	if err != nil {
		rollback()
		return nil, err
	}
	s.log.WithDate(date).WithSession(sessionID).Info("attachments added", "count", len(added))
	return added, nil
}

func (s *AttachmentService) copyOne(ctx context.Context, folder, sessionID, src string) (domain.Descriptor, error) {
	now := s.clock.Now()
	original := filepath.Base(src)
	name := domain.StoredName(original, now)
	// Same base name twice in one millisecond.
	for at := now; s.files.Exists(filepath.Join(folder, name)); {
		at = at.Add(time.Millisecond)
		name = domain.StoredName(original, at)
	}

	dst := filepath.Join(folder, name)
	size, err := s.files.Copy(ctx, src, dst)
	if err != nil {
		return domain.Descriptor{}, err
	}
	desc := domain.Descriptor{
		ID:           s.ids.New(),
		OriginalName: original,
		FileName:     name,
		Size:         size,
		Type:         domain.TypeOf(original),
		AttachedAt:   now.UTC().Format(time.RFC3339),
		Path:         dst,
		RelativePath: vaultpath.RelativeAttachment(sessionID, name),
	}
	if s.pages != nil && domain.IsPDF(original) {
		pages, err := s.pages.Pages(ctx, dst)
		if err != nil {
			s.log.Debug("count pdf pages", "path", dst, "error", err)
		} else {
			desc.PageCount = pages
		}
	}
	return desc, nil
}

// Detach removes the file and its descriptor. Both may already be gone.
func (s *AttachmentService) Detach(ctx context.Context, date, sessionID, fileName string) error {
	if err := validFileName(fileName); err != nil {
		return err
	}
	if _, err := s.sessions.Load(ctx, date, sessionID); err != nil {
		return err
	}
	if err := s.files.Remove(ctx, filepath.Join(s.folder(date, sessionID), fileName)); err != nil {
		return err
	}
	return s.sessions.Update(ctx, date, sessionID, func(current *attachmentout.SessionAttachments) error {
		remaining, removed := domain.Without(current.Attachments, fileName)
		if !removed {
			return attachmentout.ErrUnchanged
		}
		current.Attachments = remaining
		return nil
	})
}

// Locate returns the absolute path of a recorded attachment that exists.
func (s *AttachmentService) Locate(ctx context.Context, date, sessionID, fileName string) (string, error) {
	if err := validFileName(fileName); err != nil {
		return "", err
	}
	current, err := s.sessions.Load(ctx, date, sessionID)
	if err != nil {
		return "", err
	}
	if _, ok := domain.Find(current.Attachments, fileName); !ok {
		return "", fmt.Errorf("%w: attachment %s on session %s", apperrors.ErrNotFound, fileName, sessionID)
	}
	path, err := filepath.Abs(filepath.Join(s.folder(date, sessionID), fileName))
	if err != nil {
		return "", err
	}
	if !s.files.Exists(path) {
		return "", fmt.Errorf("%w: attachment file %s", apperrors.ErrNotFound, path)
	}
	return path, nil
}

// Open locates the attachment and hands it to the launcher.
func (s *AttachmentService) Open(ctx context.Context, date, sessionID, fileName string) (string, error) {
	if s.launcher == nil {
		return "", fmt.Errorf("%w: no launcher configured", apperrors.ErrInvalidInput)
	}
	path, err := s.Locate(ctx, date, sessionID, fileName)
	if err != nil {
		return "", err
	}
	if err := s.launcher.Open(ctx, path); err != nil {
		return path, err
	}
	return path, nil
}

// RepairTemp moves attachments recorded under temp-* folders into their
// session's folder and removes temp folders left empty.
func (s *AttachmentService) RepairTemp(ctx context.Context) (domain.TempRepair, error) {
	report := domain.TempRepair{FoldersKept: map[string][]string{}}
	dates, err := s.sessions.ListDates(ctx)
	if err != nil {
		return report, err
	}
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sessions, err := s.sessions.LoadDate(ctx, date)
		if err != nil {
			return report, err
		}
		for _, session := range sessions {
			if err := s.repairSession(ctx, session, &report); err != nil {
				return report, err
			}
		}
		s.sweepTempFolders(vaultpath.ForDate(s.root, date).AttachmentsFolder, &report)
	}
	sort.Strings(report.FoldersRemoved)
	return report, nil
}

// repairSession copies the temp files of one session, then rewrites every
// temp descriptor under the session lock, missing files included. Sources
// are removed once the session is saved.
func (s *AttachmentService) repairSession(ctx context.Context, session attachmentout.SessionAttachments, report *domain.TempRepair) error {
	folder := s.folder(session.Date, session.SessionID)
	moved := map[string]domain.Descriptor{}
	var copied []string
	for _, d := range session.Attachments {
		if !domain.InTempFolder(d.Path) {
			continue
		}
		src := d.Path
		fileName := filepath.Base(src)
		dst := filepath.Join(folder, fileName)
		if s.files.Exists(src) {
			if _, err := s.files.Copy(ctx, src, dst); err != nil {
				s.log.Warn("copy temp attachment", "path", src, "error", err)
				report.Failed = append(report.Failed, src)
				continue
			}
			copied = append(copied, src)
		} else {
			report.Missing = append(report.Missing, src)
		}
		d.FileName = fileName
		d.Path = dst
		d.RelativePath = vaultpath.RelativeAttachment(session.SessionID, fileName)
		moved[src] = d
	}
	if len(moved) == 0 {
		return nil
	}

	err := s.sessions.Update(ctx, session.Date, session.SessionID, func(current *attachmentout.SessionAttachments) error {
		changed := false
		for i, d := range current.Attachments {
			if !domain.InTempFolder(d.Path) {
				continue
			}
			if repaired, ok := moved[d.Path]; ok {
				current.Attachments[i] = repaired
				changed = true
			}
		}
		if !changed {
			return attachmentout.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, src := range copied {
		if err := s.files.Remove(ctx, src); err != nil {
			s.log.Warn("remove temp attachment", "path", src, "error", err)
		}
	}
	report.FilesCopied += len(copied)
	report.SessionsUpdated = append(report.SessionsUpdated, session.SessionID)
	s.log.WithDate(session.Date).WithSession(session.SessionID).Info("temp attachments repaired", "copied", len(copied))
	return nil
}

func (s *AttachmentService) sweepTempFolders(attachmentsFolder string, report *domain.TempRepair) {
	dirs, err := s.files.TempFolders(attachmentsFolder)
	if err != nil {
		s.log.Warn("list temp folders", "dir", attachmentsFolder, "error", err)
		return
	}
	for _, dir := range dirs {
		removed, remaining, err := s.files.RemoveIfEmpty(dir)
		switch {
		case err != nil:
			s.log.Warn("remove temp folder", "dir", dir, "error", err)
		case removed:
			report.FoldersRemoved = append(report.FoldersRemoved, dir)
		default:
			report.FoldersKept[dir] = remaining
		}
	}
}

func validFileName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: invalid attachment name %q", apperrors.ErrInvalidInput, name)
	}
	return nil
}
