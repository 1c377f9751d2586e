package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vedicvivaha/backend/internal/db"
	"github.com/vedicvivaha/backend/internal/utils/pagination"
)

// Gender filter values produced by NormalizeGender / TargetGenderFor.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

var genderVariants = map[string][]string{
	GenderMale:   {"male", "m"},
	GenderFemale: {"female", "f"},
}

// NormalizeGender maps the free-text gender column onto a recognized filter
// value, or "" when the value is absent or unrecognized.
func NormalizeGender(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	for norm, variants := range genderVariants {
		for _, variant := range variants {
			if v == variant {
				return norm
			}
		}
	}
	return ""
}

// TargetGenderFor returns the reciprocal gender filter for a viewer.
// Unrecognized or empty viewer gender yields "" which means "no gender
// filter"; that permissive fallback is intentional and must be preserved.
func TargetGenderFor(viewerGender string) string {
	switch NormalizeGender(viewerGender) {
	case GenderMale:
		return GenderFemale
	case GenderFemale:
		return GenderMale
	default:
		return ""
	}
}

// MemberRepository provides data access for the Member model, covering
// registration intake, candidate browsing and the admin console queries.
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new repository bound to the given DB connection.
func NewMemberRepository(database *gorm.DB) *MemberRepository {
	return &MemberRepository{db: database}
}

// CreateRegistration inserts a new member and assigns the external member id
// from the row id, both inside one transaction so no "PENDING" row ever
// becomes visible with a committed registration.
func (r *MemberRepository) CreateRegistration(ctx context.Context, member *db.Member) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member.MemberID = "PENDING"
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		member.MemberID = fmt.Sprintf("VV-%06d", member.ID)
		return tx.Model(member).Update("member_id", member.MemberID).Error
	})
}

// GetByMemberID looks up a member by the external id.
func (r *MemberRepository) GetByMemberID(ctx context.Context, memberID string) (*db.Member, error) {
	var member db.Member
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// candidateQuery builds the shared browse predicate: active members, not the
// viewer, optionally restricted to a normalized target gender. Listing, detail
// lookup and counting must all use this same predicate.
func (r *MemberRepository) candidateQuery(ctx context.Context, viewerMemberID, targetGender string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&db.Member{}).
		Where("active = ?", true).
		Where("member_id <> ?", viewerMemberID)
	if variants, ok := genderVariants[targetGender]; ok {
		q = q.Where("LOWER(TRIM(gender)) IN ?", variants)
	}
	return q
}

// CountCandidates counts the candidate pool for a viewer under the reciprocal
// gender filter, independent of pagination bounds.
func (r *MemberRepository) CountCandidates(ctx context.Context, viewerMemberID, targetGender string) (int64, error) {
	var count int64
	err := r.candidateQuery(ctx, viewerMemberID, targetGender).Count(&count).Error
	return count, err
}

// ListCandidates returns one page of candidates, newest registrations first.
func (r *MemberRepository) ListCandidates(
	ctx context.Context,
	viewerMemberID, targetGender string,
	p pagination.Params,
) ([]db.Member, error) {
	var members []db.Member
	err := r.candidateQuery(ctx, viewerMemberID, targetGender).
		Order("created_at DESC, id DESC").
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&members).Error
	return members, err
}

// GetCandidate fetches a single profile under the same predicate as listing.
// A profile that exists but fails the predicate surfaces as not found, so
// callers cannot distinguish "wrong gender" from "nonexistent".
func (r *MemberRepository) GetCandidate(
	ctx context.Context,
	viewerMemberID, targetGender, profileID string,
) (*db.Member, error) {
	var member db.Member
	err := r.candidateQuery(ctx, viewerMemberID, targetGender).
		Where("member_id = ?", profileID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListRecentVerified returns the newest verified active members for the
// anonymous teaser list.
func (r *MemberRepository) ListRecentVerified(ctx context.Context, limit int) ([]db.Member, error) {
	var members []db.Member
	err := r.db.WithContext(ctx).
		Where("active = ? AND status = ?", true, "Verified").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

// AdminFilter carries the admin console's list filters.
type AdminFilter struct {
	Search     string
	MemberID   string
	Name       string
	Active     *bool
	MaxCredits *int
	SortBy     string
	SortOrder  string
}

// columns the admin console may sort by; anything else falls back to created_at.
var sortableColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
	"member_id":  "member_id",
	"credits":    "credits",
	"status":     "status",
	"is_active":  "active",
}

// ListRegistrations returns one page of registrations plus the total count
// over the same filters.
func (r *MemberRepository) ListRegistrations(
	ctx context.Context,
	f AdminFilter,
	p pagination.Params,
) ([]db.Member, int64, error) {
	q := r.db.WithContext(ctx).Model(&db.Member{})

	if s := strings.TrimSpace(f.Search); s != "" {
		keyword := "%" + s + "%"
		q = q.Where("name LIKE ? OR member_id LIKE ?", keyword, keyword)
	}
	if s := strings.TrimSpace(f.MemberID); s != "" {
		q = q.Where("member_id LIKE ?", "%"+s+"%")
	}
	if s := strings.TrimSpace(f.Name); s != "" {
		q = q.Where("name LIKE ?", "%"+s+"%")
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	if f.MaxCredits != nil {
		q = q.Where("credits <= ?", *f.MaxCredits)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortableColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}

	var members []db.Member
	err := q.Order(column + " " + direction).
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&members).Error
	return members, total, err
}

// editable member columns the admin console may set directly; anything else
// is merged into ExtraData.
var editableFields = map[string]bool{
	"name": true, "email": true, "phone": true, "gender": true, "dob": true,
	"city": true, "address": true, "education": true, "occupation": true,
	"gothram": true, "message": true, "status": true, "active": true,
	"credits": true,
}

// UpdateFields applies an admin edit: known columns are written as-is, an
// "extra_data" value merges key-by-key, and unknown keys merge into ExtraData
// so nothing the console sends is silently dropped.
func (r *MemberRepository) UpdateFields(ctx context.Context, member *db.Member, updates map[string]any) error {
	columns := map[string]any{}
	extra := member.ExtraData
	if extra == nil {
		extra = db.JSONMap{}
	}

	for key, value := range updates {
		switch {
		case editableFields[key]:
			columns[key] = value
		case key == "extra_data":
			if patch, ok := value.(map[string]any); ok {
				for k, v := range patch {
					extra[k] = v
				}
			}
		default:
			extra[key] = value
		}
	}
	columns["extra_data"] = extra

	err := r.db.WithContext(ctx).Model(member).Updates(columns).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("member_id = ?", member.MemberID).First(member).Error
}

// UpdatePasswordHash replaces the stored password hash.
func (r *MemberRepository) UpdatePasswordHash(ctx context.Context, member *db.Member, hash string) error {
	member.PasswordHash = hash
	return r.db.WithContext(ctx).Model(member).Update("password_hash", hash).Error
}

// UpdateMemberFields applies the self-service profile edit: members may only
// touch their address, occupation and message.
func (r *MemberRepository) UpdateMemberFields(
	ctx context.Context,
	member *db.Member,
	address, occupation, message *string,
) error {
	columns := map[string]any{}
	if address != nil {
		columns["address"] = *address
		member.Address = *address
	}
	if occupation != nil {
		columns["occupation"] = *occupation
		member.Occupation = *occupation
	}
	if message != nil {
		columns["message"] = *message
		member.Message = *message
	}
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(member).Updates(columns).Error
}
