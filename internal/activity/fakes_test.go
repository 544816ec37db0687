package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/inboxlab/message-dispatch/internal/client"
	"github.com/inboxlab/message-dispatch/internal/model"
	"github.com/inboxlab/message-dispatch/internal/repo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	err      error
	calls    int
}

func (f *fakeProfileRepo) GetProfile(ctx context.Context, fiscalCode string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[fiscalCode]
	if !ok {
		return nil, repo.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func prefKey(fiscalCode, serviceID string, version int) string {
	return fmt.Sprintf("%s|%s|%d", fiscalCode, serviceID, version)
}

type fakePreferenceRepo struct {
	prefs map[string]*model.ServicePreference
	err   error
}

func (f *fakePreferenceRepo) GetServicePreference(ctx context.Context, fiscalCode, serviceID string, version int) (*model.ServicePreference, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.prefs[prefKey(fiscalCode, serviceID, version)]
	if !ok {
		return nil, repo.ErrPreferenceNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeMessageRepo struct {
	mu         sync.Mutex
	messages   map[string]*repo.ProcessingMessage
	notPending []string
	getErr     error
	updateErr  error
}

func (f *fakeMessageRepo) GetMessage(ctx context.Context, messageID string) (*repo.ProcessingMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.messages[messageID]
	if !ok {
		return nil, repo.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageRepo) SetNotPending(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.notPending = append(f.notPending, messageID)
	return nil
}

type fakeContentStore struct {
	mu       sync.Mutex
	contents map[string]model.MessageContent
	storeErr error
	getErr   error
}

func (f *fakeContentStore) StoreContent(ctx context.Context, messageID string, content model.MessageContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return f.storeErr
	}
	if f.contents == nil {
		f.contents = map[string]model.MessageContent{}
	}
	f.contents[messageID] = content
	return nil
}

func (f *fakeContentStore) GetContent(ctx context.Context, messageID string) (*model.MessageContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.contents[messageID]
	if !ok {
		return nil, fmt.Errorf("no content for %s", messageID)
	}
	cp := c
	return &cp, nil
}

type fakeNotificationRepo struct {
	mu        sync.Mutex
	created   []*model.NotificationRecord
	createErr error
	getErr    error
}

func (f *fakeNotificationRepo) CreateNotification(ctx context.Context, n *model.NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.created {
		if existing.ID == n.ID && existing.MessageID == n.MessageID {
			return nil
		}
	}
	cp := *n
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeNotificationRepo) GetNotification(ctx context.Context, messageID, notificationID string) (*model.NotificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, n := range f.created {
		if n.MessageID == messageID && n.ID == notificationID {
			cp := *n
			return &cp, nil
		}
	}
	return nil, repo.ErrNotificationNotFound
}

type fakeSenderRefRepo struct {
	mu   sync.Mutex
	refs map[string]bool
	err  error
}

func (f *fakeSenderRefRepo) SaveSenderReference(ctx context.Context, fiscalCode, serviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.refs == nil {
		f.refs = map[string]bool{}
	}
	f.refs[fiscalCode+"|"+serviceID] = true
	return nil
}

type fakeStatusRepo struct {
	mu              sync.Mutex
	messageStatuses map[string]model.MessageStatus
	channelStatuses []model.ChannelStatusRecord
	msgErr          error
	channelErr      error
}

func (f *fakeStatusRepo) UpsertMessageStatus(ctx context.Context, messageID string, status model.MessageStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.msgErr != nil {
		return f.msgErr
	}
	if f.messageStatuses == nil {
		f.messageStatuses = map[string]model.MessageStatus{}
	}
	f.messageStatuses[messageID] = status
	return nil
}

func (f *fakeStatusRepo) GetMessageStatus(ctx context.Context, messageID string) (*model.MessageStatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.messageStatuses[messageID]
	if !ok {
		status = model.MessageStatusAccepted
	}
	return &model.MessageStatusRecord{MessageID: messageID, Status: status}, nil
}

func (f *fakeStatusRepo) UpsertChannelStatus(ctx context.Context, rec model.ChannelStatusRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelErr != nil {
		return f.channelErr
	}
	for i, existing := range f.channelStatuses {
		if existing.MessageID == rec.MessageID && existing.NotificationID == rec.NotificationID && existing.Channel == rec.Channel {
			f.channelStatuses[i] = rec
			return nil
		}
	}
	f.channelStatuses = append(f.channelStatuses, rec)
	return nil
}

func (f *fakeStatusRepo) ListChannelStatuses(ctx context.Context, messageID string) ([]model.ChannelStatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ChannelStatusRecord
	for _, rec := range f.channelStatuses {
		if rec.MessageID == messageID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []client.EmailMessage
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg client.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []client.WebhookMessage
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, msg client.WebhookMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}
