package diet

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	types "github.com/luisquicidev/easydiet-backend/internal/domain"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
	"github.com/luisquicidev/easydiet-backend/internal/platform/dbctx"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

type MetActivityRepo interface {
	List(dbc dbctx.Context) ([]*types.MetActivity, error)
	// Resolve maps a code or description to a reference row: exact code or
	// description, then substring either way, then the first row by code.
	// It returns nil when the table is empty.
	Resolve(dbc dbctx.Context, term string) (*types.MetActivity, error)
}

type metActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetActivityRepo(db *gorm.DB, baseLog *logger.Logger) MetActivityRepo {
	return &metActivityRepo{db: db, log: baseLog.With("repo", "MetActivityRepo")}
}

func (r *metActivityRepo) List(dbc dbctx.Context) ([]*types.MetActivity, error) {
	var out []*types.MetActivity
	if err := dbc.DB(r.db).Order("code ASC").Find(&out).Error; err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "met.List", err)
	}
	return out, nil
}

func (r *metActivityRepo) Resolve(dbc dbctx.Context, term string) (*types.MetActivity, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	db := dbc.DB(r.db)

	if needle != "" {
		if m, err := r.find(db.Where("code = ? OR LOWER(description) = ?", strings.TrimSpace(term), needle)); m != nil || err != nil {
			return m, err
		}
		like := "%" + escapeLike(needle) + "%"
		m, err := r.find(db.Session(&gorm.Session{NewDB: true}).Model(&types.MetActivity{}).
			Where("LOWER(description) LIKE ? ESCAPE '\\' OR ? LIKE '%' || LOWER(description) || '%'", like, needle))
		if m != nil || err != nil {
			return m, err
		}
	}

	m, err := r.find(db.Session(&gorm.Session{NewDB: true}).Model(&types.MetActivity{}))
	if m != nil {
		r.log.Warn("MET term unresolved, using first reference activity", "term", term, "code", m.Code)
	}
	return m, err
}

func (r *metActivityRepo) find(q *gorm.DB) (*types.MetActivity, error) {
	var m types.MetActivity
	err := q.Order("code ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.E(apierr.PersistenceFailure, "met.Resolve", err)
	}
	return &m, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
