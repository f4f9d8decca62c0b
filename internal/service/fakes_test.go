package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
	"bed_temperature/internal/repository"
)

// fakeUsers is an in-memory repository.UserRepo.
type fakeUsers struct {
	mu        sync.Mutex
	byEmail   map[string]models.User
	updateErr error
	updates   int
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]models.User{}}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) Upsert(ctx context.Context, u models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateCredentials(ctx context.Context, email string, c models.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return repository.ErrNotFound
	}
	u.Credentials = c
	f.byEmail[email] = u
	return nil
}

// fakeProfiles is an in-memory repository.ProfileRepo joined against fakeUsers.
type fakeProfiles struct {
	users   *fakeUsers
	byEmail map[string]models.TemperatureProfile
	listErr error
}

func newFakeProfiles(users *fakeUsers, profiles ...models.TemperatureProfile) *fakeProfiles {
	f := &fakeProfiles{users: users, byEmail: map[string]models.TemperatureProfile{}}
	for _, p := range profiles {
		f.byEmail[p.Email] = p
	}
	return f
}

func (f *fakeProfiles) Upsert(ctx context.Context, p models.TemperatureProfile) error {
	f.byEmail[p.Email] = p
	return nil
}

func (f *fakeProfiles) Get(ctx context.Context, email string) (models.TemperatureProfile, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return models.TemperatureProfile{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Delete(ctx context.Context, email string) error {
	if _, ok := f.byEmail[email]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byEmail, email)
	return nil
}

func (f *fakeProfiles) ListEnrolled(ctx context.Context) ([]models.Enrollment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Enrollment
	for email, p := range f.byEmail {
		u, err := f.users.GetByEmail(ctx, email)
		if err != nil {
			continue
		}
		out = append(out, models.Enrollment{User: u, Profile: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.Email < out[j].User.Email })
	return out, nil
}

// fakeEventRepo records appended events and answers List from captured inputs.
type fakeEventRepo struct {
	mu       sync.Mutex
	appended []models.AdjustmentEvent

	gotEmail string
	gotFrom  time.Time
	gotTo    time.Time
	gotType  string
	events   []models.AdjustmentEvent
	err      error
	calls    int
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.AdjustmentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, email string, from, to time.Time, typ string) ([]models.AdjustmentEvent, error) {
	f.calls++
	f.gotEmail, f.gotFrom, f.gotTo, f.gotType = email, from, to, typ
	return f.events, f.err
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

// fakeAuthenticator returns canned credentials.
type fakeAuthenticator struct {
	mu         sync.Mutex
	creds      models.Credentials
	authErr    error
	refreshErr error
	refreshes  int
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, email, password string) (models.Credentials, error) {
	if f.authErr != nil {
		return models.Credentials{}, f.authErr
	}
	return f.creds, nil
}

func (f *fakeAuthenticator) Refresh(ctx context.Context, refreshToken, deviceUserID string) (models.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return models.Credentials{}, f.refreshErr
	}
	c := f.creds
	c.DeviceUserID = deviceUserID
	return c, nil
}

// recordingController is a device.Controller that records every call.
type recordingController struct {
	mu        sync.Mutex
	status    models.HeatingStatus
	statusErr error
	failOn    string
	calls     []string
	tokens    []string
}

func (r *recordingController) note(call string, c models.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	r.tokens = append(r.tokens, c.AccessToken)
	if r.failOn != "" && r.failOn == call {
		return errors.New("device unavailable")
	}
	return nil
}

func (r *recordingController) HeatingStatus(ctx context.Context, c models.Credentials) (models.HeatingStatus, error) {
	_ = r.note("status", c)
	return r.status, r.statusErr
}

func (r *recordingController) TurnOn(ctx context.Context, c models.Credentials) error {
	return r.note("TURN_ON", c)
}

func (r *recordingController) TurnOff(ctx context.Context, c models.Credentials) error {
	return r.note("TURN_OFF", c)
}

func (r *recordingController) SetLevel(ctx context.Context, c models.Credentials, level int) error {
	return r.note(fmt.Sprintf("SET_LEVEL(%d)", level), c)
}

var (
	// 21:05 UTC on a June evening
	testNow = time.Date(2024, 6, 1, 21, 5, 0, 0, time.UTC)

	validCreds = models.Credentials{
		AccessToken:  "acc",
		RefreshToken: "ref",
		ExpiresAt:    testNow.Add(time.Hour),
		DeviceUserID: "dev-1",
	}
)

func testUser(email string, creds models.Credentials) models.User {
	return models.User{Email: email, Credentials: creds}
}

func testProfile(email string) models.TemperatureProfile {
	return models.TemperatureProfile{
		Email:        email,
		BedTime:      "22:00",
		WakeTime:     "07:00",
		Timezone:     "UTC",
		InitialLevel: 30,
		MidLevel:     -10,
		FinalLevel:   20,
	}
}

type harness struct {
	users    *fakeUsers
	profiles *fakeProfiles
	events   *fakeEventRepo
	auth     *fakeAuthenticator
	live     *recordingController
	dry      *recordingController
	creds    *credentialKeeper
	rec      *Reconciler
}

func newHarness(users ...models.User) *harness {
	h := &harness{
		users:  newFakeUsers(users...),
		events: &fakeEventRepo{},
		auth:   &fakeAuthenticator{creds: models.Credentials{AccessToken: "acc-new", RefreshToken: "ref-new", ExpiresAt: testNow.Add(8 * time.Hour)}},
		live:   &recordingController{},
		dry:    &recordingController{},
	}
	h.profiles = newFakeProfiles(h.users)
	for _, u := range users {
		h.profiles.byEmail[u.Email] = testProfile(u.Email)
	}
	repos := &repository.Repository{UserRepo: h.users, ProfileRepo: h.profiles, EventRepo: h.events}
	h.creds = newCredentialKeeper(h.users, h.events, h.auth, logger.Nop())
	h.rec = NewReconciler(repos, h.creds, h.live, h.dry, logger.Nop())
	h.rec.now = func() time.Time { return testNow }
	return h
}
