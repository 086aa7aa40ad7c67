// pkg/cleanse/cleanse.go
package cleanse

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
)

// Engine applies per-entity conformance rules to raw batches. Every
// anomaly except an absent customer numeric id is corrected in place;
// corrections are returned as CleansingOperation records so the run can
// persist them for review.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a cleansing engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the engine's clock, used by tests and replays
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ConformCustomers cleans the customer master batch. Rows without a
// numeric id are dropped and counted; duplicates per id are collapsed to
// the record with the most recent creation date, last encountered winning
// ties. Output is sorted by id so repeated runs over the same raw
// snapshot produce identical batches.
func (e *Engine) ConformCustomers(raw []model.RawCustomer) ([]model.Customer, []model.CleansingOperation, int) {
	conformedAt := e.now()
	var ops []model.CleansingOperation
	dropped := 0

	survivors := make(map[int]model.Customer, len(raw))
	for _, rc := range raw {
		if rc.ID == nil {
			dropped++
			continue
		}

		c := model.Customer{
			ID:          *rc.ID,
			Key:         rc.Key,
			CreatedAt:   rc.CreatedAt,
			ConformedAt: conformedAt,
		}

		rowKey := c.Key
		c.FirstName = trimField(rc.FirstName, "customer", "first_name", rowKey, &ops)
		c.LastName = trimField(rc.LastName, "customer", "last_name", rowKey, &ops)
		c.MaritalStatus = mapCode(rc.MaritalStatus, maritalStatusLabels, "customer", "marital_status", rowKey, &ops)
		c.Gender = mapCode(rc.Gender, genderLabels, "customer", "gender", rowKey, &ops)

		if prev, ok := survivors[c.ID]; ok {
			// Most recent creation date wins; equal dates fall through to
			// the record encountered last.
			if timeOrZero(c.CreatedAt).Before(timeOrZero(prev.CreatedAt)) {
				continue
			}
		}
		survivors[c.ID] = c
	}

	customers := make([]model.Customer, 0, len(survivors))
	for _, c := range survivors {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })

	if dropped > 0 {
		e.logger.Warn("Dropped customer rows without numeric id", zap.Int("count", dropped))
	}
	e.logger.Info("Conformed customers",
		zap.Int("raw", len(raw)),
		zap.Int("conformed", len(customers)),
		zap.Int("dropped", dropped),
		zap.Int("cleansing_ops", len(ops)))

	return customers, ops, dropped
}

// ConformLocations cleans the ERP location batch. The customer id is
// stripped of separator characters so it joins against the customer
// master's business key; country codes map to full names.
func (e *Engine) ConformLocations(raw []model.RawLocation) ([]model.Location, []model.CleansingOperation) {
	conformedAt := e.now()
	var ops []model.CleansingOperation

	locations := make([]model.Location, 0, len(raw))
	for _, rl := range raw {
		key := stripNonAlphanumeric(rl.CustomerID)
		if key != rl.CustomerID {
			ops = append(ops, model.NewCleansingOperation(
				"location", "customer_id", key, "id_normalization", "separator_characters", rl.CustomerID, key))
		}

		country := normalizeCountry(rl.Country)
		if country != rl.Country {
			ops = append(ops, model.NewCleansingOperation(
				"location", "country", key, "code_standardization", countryReason(rl.Country), rl.Country, country))
		}

		locations = append(locations, model.Location{
			CustomerKey: key,
			Country:     country,
			ConformedAt: conformedAt,
		})
	}

	e.logger.Info("Conformed locations",
		zap.Int("raw", len(raw)),
		zap.Int("cleansing_ops", len(ops)))

	return locations, ops
}

// ConformCustomerExtras cleans the supplementary customer attribute
// batch. The known id prefix is stripped, future birthdates are nulled as
// data-quality errors, and free-text gender is standardized.
func (e *Engine) ConformCustomerExtras(raw []model.RawCustomerExtra) ([]model.CustomerExtra, []model.CleansingOperation) {
	conformedAt := e.now()
	var ops []model.CleansingOperation

	extras := make([]model.CustomerExtra, 0, len(raw))
	for _, re := range raw {
		key := stripIDPrefix(re.ID)
		if key != re.ID {
			ops = append(ops, model.NewCleansingOperation(
				"customer_extra", "customer_id", key, "id_normalization", "non_numeric_prefix", re.ID, key))
		}

		birthdate := re.Birthdate
		if birthdate != nil && birthdate.After(conformedAt) {
			ops = append(ops, model.NewCleansingOperation(
				"customer_extra", "birthdate", key, "null_out", "future_birthdate",
				birthdate.Format("2006-01-02"), ""))
			birthdate = nil
		}

		gender := standardizeGenderText(re.Gender)
		if gender != re.Gender {
			ops = append(ops, model.NewCleansingOperation(
				"customer_extra", "gender", key, "code_standardization", "free_text_gender", re.Gender, gender))
		}

		extras = append(extras, model.CustomerExtra{
			CustomerKey: key,
			Birthdate:   birthdate,
			Gender:      gender,
			ConformedAt: conformedAt,
		})
	}

	e.logger.Info("Conformed customer extras",
		zap.Int("raw", len(raw)),
		zap.Int("cleansing_ops", len(ops)))

	return extras, ops
}

// ConformCategories passes the category batch through unchanged; this
// entity is already conformed at the source.
func (e *Engine) ConformCategories(raw []model.RawCategory) []model.Category {
	conformedAt := e.now()

	categories := make([]model.Category, 0, len(raw))
	for _, rc := range raw {
		categories = append(categories, model.Category{
			ID:          rc.ID,
			Category:    rc.Category,
			Subcategory: rc.Subcategory,
			Maintenance: rc.Maintenance,
			ConformedAt: conformedAt,
		})
	}

	e.logger.Info("Conformed categories", zap.Int("raw", len(raw)))
	return categories
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
