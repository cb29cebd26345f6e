package router

import (
	"context"
	"fmt"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/student"
)

// GetProfile is profile.get.
type GetProfile struct {
	UserID string `json:"userId"`
}

func (GetProfile) Kind() Kind { return KindProfileGet }

func (a GetProfile) Owner() string { return a.UserID }

func (a GetProfile) run(ctx context.Context, r *Router) (*student.Profile, string, error) {
	if err := checkUserID(a.UserID); err != nil {
		return nil, "", err
	}
	p, err := r.loadProfile(ctx, a.UserID)
	if err != nil {
		return nil, "", err
	}
	if p == nil {
		return nil, "", &notFoundError{msg: "Student profile not found"}
	}
	return p, "Profile retrieved successfully", nil
}

func (a GetProfile) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[*student.Profile](ctx, r, a))
}

// UpsertProfile is profile.upsert. A new profile starts with zero counters;
// an existing one keeps createdAt, streak, totalQuizzesTaken and
// averageScore, and only the identity fields present in Data are written.
type UpsertProfile struct {
	Data student.Profile `json:"data"`
}

func (UpsertProfile) Kind() Kind { return KindProfileUpsert }

func (a UpsertProfile) Owner() string { return a.Data.UserID }

func (a UpsertProfile) run(ctx context.Context, r *Router) (*student.Profile, string, error) {
	uid := a.Data.UserID
	if err := checkUserID(uid); err != nil {
		return nil, "", err
	}
	ref := student.ProfileRef(uid)
	snap, err := r.db.Get(ctx, ref)
	if err != nil {
		return nil, "", fmt.Errorf("failed to update profile: %w", err)
	}

	fields := docstore.Fields{
		"userId":    uid,
		"lastLogin": docstore.ServerTimestamp,
	}
	setIfPresent(fields, "displayName", a.Data.DisplayName)
	setIfPresent(fields, "email", a.Data.Email)
	setIfPresent(fields, "photoURL", a.Data.PhotoURL)
	if a.Data.PreferredSubjects != nil {
		fields["preferredSubjects"] = uniqueStrings(a.Data.PreferredSubjects)
	}

	if !snap.Exists {
		fields["createdAt"] = docstore.ServerTimestamp
		fields["streak"] = 0
		fields["totalQuizzesTaken"] = 0
		fields["averageScore"] = 0
		for _, k := range []string{"displayName", "email", "photoURL"} {
			if _, ok := fields[k]; !ok {
				fields[k] = ""
			}
		}
		if _, ok := fields["preferredSubjects"]; !ok {
			fields["preferredSubjects"] = []string{}
		}
	}

	if err := r.db.Set(ctx, ref, fields, docstore.Merge()); err != nil {
		return nil, "", fmt.Errorf("failed to update profile: %w", err)
	}
	p, err := r.loadProfile(ctx, uid)
	if err != nil {
		return nil, "", err
	}
	return p, "Profile updated successfully", nil
}

func (a UpsertProfile) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[*student.Profile](ctx, r, a))
}

func (r *Router) loadProfile(ctx context.Context, uid string) (*student.Profile, error) {
	snap, err := r.db.Get(ctx, student.ProfileRef(uid))
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return nil, nil
	}
	var p student.Profile
	if err := snap.DataTo(&p); err != nil {
		return nil, err
	}
	if p.PreferredSubjects == nil {
		p.PreferredSubjects = []string{}
	}
	return &p, nil
}

func setIfPresent(f docstore.Fields, key, value string) {
	if value != "" {
		f[key] = value
	}
}

// uniqueStrings drops repeats and keeps first-seen order.
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
