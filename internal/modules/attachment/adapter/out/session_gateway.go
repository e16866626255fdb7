package out

import (
	"context"

	"studyvault/internal/modules/attachment/domain"
	attachmentout "studyvault/internal/modules/attachment/port/out"
	sessiondomain "studyvault/internal/modules/session/domain"
	sessionin "studyvault/internal/modules/session/port/in"
)

// SessionGateway edits attachment lists through the session usecase.
type SessionGateway struct {
	sessions sessionin.Usecase
}

func NewSessionGateway(sessions sessionin.Usecase) attachmentout.SessionGateway {
	return &SessionGateway{sessions: sessions}
}

func (g *SessionGateway) Load(ctx context.Context, date, sessionID string) (attachmentout.SessionAttachments, error) {
	view, err := g.sessions.Get(ctx, date, sessionID)
	if err != nil {
		return attachmentout.SessionAttachments{}, err
	}
	session, err := sessiondomain.Decode(view.Record)
	if err != nil {
		return attachmentout.SessionAttachments{}, err
	}
	return fromSession(session), nil
}

func (g *SessionGateway) LoadDate(ctx context.Context, date string) ([]attachmentout.SessionAttachments, error) {
	views, err := g.sessions.LoadDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]attachmentout.SessionAttachments, 0, len(views))
	for _, view := range views {
		session, err := sessiondomain.Decode(view.Record)
		if err != nil {
			return nil, err
		}
		out = append(out, fromSession(session))
	}
	return out, nil
}

func (g *SessionGateway) ListDates(ctx context.Context) ([]string, error) {
	return g.sessions.ListDates(ctx)
}

func (g *SessionGateway) Update(ctx context.Context, date, sessionID string, edit func(*attachmentout.SessionAttachments) error) error {
	_, err := g.sessions.Update(ctx, date, sessionID, func(session *sessiondomain.Session) error {
		current := fromSession(*session)
		if err := edit(&current); err != nil {
			return err
		}
		session.Attachments = make([]sessiondomain.Attachment, 0, len(current.Attachments))
		for _, d := range current.Attachments {
			session.Attachments = append(session.Attachments, sessiondomain.Attachment(d))
		}
		return nil
	})
	return err
}

func fromSession(s sessiondomain.Session) attachmentout.SessionAttachments {
	descs := make([]domain.Descriptor, 0, len(s.Attachments))
	for _, a := range s.Attachments {
		descs = append(descs, domain.Descriptor(a))
	}
	return attachmentout.SessionAttachments{Date: s.Date, SessionID: s.ID, Attachments: descs}
}
