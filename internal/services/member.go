package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/flatmate/flatmate-backend/internal/identity"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// MemberService projects the raw user table into the member directory. It
// owns no state of its own; everything is a read-time view over `users`.
type MemberService struct {
	store recordstore.Store
}

func NewMemberService(s recordstore.Store) *MemberService { return &MemberService{store: s} }

// rawUser mirrors the user table shape, which accumulated several field
// spellings across registration flows.
type rawUser struct {
	Role        string   `json:"role"`
	FullName    string   `json:"fullName"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	FlatNumber  string   `json:"flatNumber"`
	Flat        string   `json:"flat"`
	Email       string   `json:"email"`
	Dues        *float64 `json:"dues"`
	Paid        *float64 `json:"paid"`
	LastPayment *int64   `json:"lastPayment"`
}

// ListMembers reads the full user table and projects accounts with role
// "member". Records are ordered by store key, which is registration order.
func (s *MemberService) ListMembers(ctx context.Context) ([]model.Member, error) {
	snap, err := s.store.Get(ctx, recordstore.PathUsers)
	if err != nil {
		return nil, err
	}
	return projectMembers(snap)
}

// WatchMembers establishes a standing subscription on the user table. Each
// change delivers a freshly projected full snapshot. The returned cancel
// handle must be invoked when the caller loses interest.
func (s *MemberService) WatchMembers(ctx context.Context, onChange func([]model.Member)) (recordstore.CancelFunc, error) {
	return s.store.Watch(ctx, recordstore.PathUsers, func(snap json.RawMessage) {
		members, err := projectMembers(snap)
		if err != nil {
			log.Warn().Err(err).Msg("member snapshot projection failed")
			return
		}
		onChange(members)
	})
}

// GetMember projects a single user record.
func (s *MemberService) GetMember(ctx context.Context, id string) (*model.Member, error) {
	snap, err := s.store.Get(ctx, recordstore.UserPath(id))
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, model.ErrNotFound
	}
	var raw rawUser
	if err := json.Unmarshal(snap, &raw); err != nil {
		return nil, err
	}
	m := projectMember(id, raw)
	return &m, nil
}

func projectMembers(snap json.RawMessage) ([]model.Member, error) {
	if snap == nil {
		return []model.Member{}, nil
	}
	var users map[string]rawUser
	if err := json.Unmarshal(snap, &users); err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(users))
	for id, u := range users {
		if u.Role != "member" {
			continue
		}
		out = append(out, projectMember(id, u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func projectMember(id string, u rawUser) model.Member {
	p := identity.Profile{
		FullName:    u.FullName,
		Name:        u.Name,
		DisplayName: u.DisplayName,
		FlatNumber:  u.FlatNumber,
		Flat:        u.Flat,
	}
	m := model.Member{
		ID:          id,
		Name:        p.ResolveName(),
		Flat:        p.ResolveFlat(),
		Email:       u.Email,
		LastPayment: u.LastPayment,
	}
	if u.Dues != nil {
		m.Dues = *u.Dues
	}
	if u.Paid != nil {
		m.Paid = *u.Paid
	}
	return m
}

// FilterMembers is a pure, case-insensitive substring match over name, flat
// and email; any one field matching keeps the member. An empty term is the
// identity.
func FilterMembers(members []model.Member, term string) []model.Member {
	if term == "" {
		return members
	}
	needle := strings.ToLower(term)
	out := make([]model.Member, 0, len(members))
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Name), needle) ||
			strings.Contains(strings.ToLower(m.Flat), needle) ||
			strings.Contains(strings.ToLower(m.Email), needle) {
			out = append(out, m)
		}
	}
	return out
}
