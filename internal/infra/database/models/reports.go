package models

import (
	"time"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/domain"
)

// Report is implemented by the five table models so the repository can
// treat them uniformly.
type Report interface {
	ReportID() string
	ToDomain() domain.Report
}

type Casualty struct {
	ID            string     `json:"id" gorm:"primaryKey;type:text"`
	Location      *string    `json:"location,omitempty" gorm:"type:text"`
	ManualAddress *string    `json:"manualAddress,omitempty" gorm:"type:text"`
	IncidentType  *string    `json:"incidentType,omitempty" gorm:"type:text"`
	Date          *time.Time `json:"date,omitempty" gorm:"type:timestamp with time zone"`
	Description   *string    `json:"description,omitempty" gorm:"type:text"`
	ImageURI      *string    `json:"imageUri,omitempty" gorm:"type:text"`
	IsAccepted    bool       `json:"isAccepted" gorm:"type:boolean;not null;default:false"`
	Owner         string     `json:"owner" gorm:"type:text;index"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func (m Casualty) ReportID() string { return m.ID }

func (m Casualty) ToDomain() domain.Report {
	fields := map[string]any{}
	putStr(fields, "incidentType", m.IncidentType)
	putTime(fields, "date", m.Date)
	putStr(fields, "description", m.Description)
	putStr(fields, "imageUri", m.ImageURI)
	return common(herdline.KindCasualty, m.ID, m.Owner, m.IsAccepted, m.Location, m.ManualAddress, fields, m.CreatedAt, m.UpdatedAt)
}

func CasualtyFromDomain(r domain.Report) Casualty {
	return Casualty{
		ID:            r.ID,
		Location:      r.Location,
		ManualAddress: r.ManualAddress,
		IncidentType:  strField(r.Fields, "incidentType"),
		Date:          timeField(r.Fields, "date"),
		Description:   strField(r.Fields, "description"),
		ImageURI:      strField(r.Fields, "imageUri"),
		IsAccepted:    r.IsAccepted,
		Owner:         r.Owner,
	}
}

type Donation struct {
	ID            string    `json:"id" gorm:"primaryKey;type:text"`
	FoodType      *string   `json:"foodType,omitempty" gorm:"type:text"`
	Quantity      *int      `json:"quantity,omitempty" gorm:"type:integer"`
	Unit          *string   `json:"unit,omitempty" gorm:"type:text"`
	Location      *string   `json:"location,omitempty" gorm:"type:text"`
	ManualAddress *string   `json:"manualAddress,omitempty" gorm:"type:text"`
	PickupTime    *string   `json:"pickupTime,omitempty" gorm:"type:text"`
	ContactName   *string   `json:"contactName,omitempty" gorm:"type:text"`
	ContactPhone  *string   `json:"contactPhone,omitempty" gorm:"type:text"`
	IsAccepted    bool      `json:"isAccepted" gorm:"type:boolean;not null;default:false"`
	Owner         string    `json:"owner" gorm:"type:text;index"`
	CreatedAt     time.Time `json:"createdAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func (m Donation) ReportID() string { return m.ID }

func (m Donation) ToDomain() domain.Report {
	fields := map[string]any{}
	putStr(fields, "foodType", m.FoodType)
	putInt(fields, "quantity", m.Quantity)
	putStr(fields, "unit", m.Unit)
	putStr(fields, "pickupTime", m.PickupTime)
	putStr(fields, "contactName", m.ContactName)
	putStr(fields, "contactPhone", m.ContactPhone)
	return common(herdline.KindDonation, m.ID, m.Owner, m.IsAccepted, m.Location, m.ManualAddress, fields, m.CreatedAt, m.UpdatedAt)
}

func DonationFromDomain(r domain.Report) Donation {
	return Donation{
		ID:            r.ID,
		FoodType:      strField(r.Fields, "foodType"),
		Quantity:      intField(r.Fields, "quantity"),
		Unit:          strField(r.Fields, "unit"),
		Location:      r.Location,
		ManualAddress: r.ManualAddress,
		PickupTime:    strField(r.Fields, "pickupTime"),
		ContactName:   strField(r.Fields, "contactName"),
		ContactPhone:  strField(r.Fields, "contactPhone"),
		IsAccepted:    r.IsAccepted,
		Owner:         r.Owner,
	}
}

type Flocking struct {
	ID            string     `json:"id" gorm:"primaryKey;type:text"`
	Location      *string    `json:"location,omitempty" gorm:"type:text"`
	ManualAddress *string    `json:"manualAddress,omitempty" gorm:"type:text"`
	HerdSize      *int       `json:"herdSize,omitempty" gorm:"type:integer"`
	DateTime      *time.Time `json:"dateTime,omitempty" gorm:"type:timestamp with time zone"`
	Description   *string    `json:"description,omitempty" gorm:"type:text"`
	ImageURI      *string    `json:"imageUri,omitempty" gorm:"type:text"`
	IsAccepted    bool       `json:"isAccepted" gorm:"type:boolean;not null;default:false"`
	Owner         string     `json:"owner" gorm:"type:text;index"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func (m Flocking) ReportID() string { return m.ID }

func (m Flocking) ToDomain() domain.Report {
	fields := map[string]any{}
	putInt(fields, "herdSize", m.HerdSize)
	putTime(fields, "dateTime", m.DateTime)
	putStr(fields, "description", m.Description)
	putStr(fields, "imageUri", m.ImageURI)
	return common(herdline.KindFlocking, m.ID, m.Owner, m.IsAccepted, m.Location, m.ManualAddress, fields, m.CreatedAt, m.UpdatedAt)
}

func FlockingFromDomain(r domain.Report) Flocking {
	return Flocking{
		ID:            r.ID,
		Location:      r.Location,
		ManualAddress: r.ManualAddress,
		HerdSize:      intField(r.Fields, "herdSize"),
		DateTime:      timeField(r.Fields, "dateTime"),
		Description:   strField(r.Fields, "description"),
		ImageURI:      strField(r.Fields, "imageUri"),
		IsAccepted:    r.IsAccepted,
		Owner:         r.Owner,
	}
}

type Garbage struct {
	ID            string    `json:"id" gorm:"primaryKey;type:text"`
	Location      *string   `json:"location,omitempty" gorm:"type:text"`
	ManualAddress *string   `json:"manualAddress,omitempty" gorm:"type:text"`
	CattleCount   *int      `json:"cattleCount,omitempty" gorm:"type:integer"`
	GarbageType   *string   `json:"garbageType,omitempty" gorm:"type:text"`
	Description   *string   `json:"description,omitempty" gorm:"type:text"`
	ImageURI      *string   `json:"imageUri,omitempty" gorm:"type:text"`
	IsAccepted    bool      `json:"isAccepted" gorm:"type:boolean;not null;default:false"`
	Owner         string    `json:"owner" gorm:"type:text;index"`
	CreatedAt     time.Time `json:"createdAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func (m Garbage) ReportID() string { return m.ID }

func (m Garbage) ToDomain() domain.Report {
	fields := map[string]any{}
	putStr(fields, "garbageType", m.GarbageType)
	putInt(fields, "cattleCount", m.CattleCount)
	putStr(fields, "description", m.Description)
	putStr(fields, "imageUri", m.ImageURI)
	return common(herdline.KindGarbage, m.ID, m.Owner, m.IsAccepted, m.Location, m.ManualAddress, fields, m.CreatedAt, m.UpdatedAt)
}

func GarbageFromDomain(r domain.Report) Garbage {
	return Garbage{
		ID:            r.ID,
		Location:      r.Location,
		ManualAddress: r.ManualAddress,
		CattleCount:   intField(r.Fields, "cattleCount"),
		GarbageType:   strField(r.Fields, "garbageType"),
		Description:   strField(r.Fields, "description"),
		ImageURI:      strField(r.Fields, "imageUri"),
		IsAccepted:    r.IsAccepted,
		Owner:         r.Owner,
	}
}

type Adoption struct {
	ID            string    `json:"id" gorm:"primaryKey;type:text"`
	Name          *string   `json:"name,omitempty" gorm:"type:text"`
	Phone         *string   `json:"phone,omitempty" gorm:"type:text"`
	Location      *string   `json:"location,omitempty" gorm:"type:text"`
	ManualAddress *string   `json:"manualAddress,omitempty" gorm:"type:text"`
	Occupation    *string   `json:"occupation,omitempty" gorm:"type:text"`
	Purpose       *string   `json:"purpose,omitempty" gorm:"type:text"`
	Experience    *string   `json:"experience,omitempty" gorm:"type:text"`
	AgreedToTerms *bool     `json:"agreedToTerms,omitempty" gorm:"type:boolean"`
	IsAccepted    bool      `json:"isAccepted" gorm:"type:boolean;not null;default:false"`
	Owner         string    `json:"owner" gorm:"type:text;index"`
	CreatedAt     time.Time `json:"createdAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

func (m Adoption) ReportID() string { return m.ID }

func (m Adoption) ToDomain() domain.Report {
	fields := map[string]any{}
	putStr(fields, "name", m.Name)
	putStr(fields, "phone", m.Phone)
	putStr(fields, "occupation", m.Occupation)
	putStr(fields, "purpose", m.Purpose)
	putStr(fields, "experience", m.Experience)
	putBool(fields, "agreedToTerms", m.AgreedToTerms)
	return common(herdline.KindAdoption, m.ID, m.Owner, m.IsAccepted, m.Location, m.ManualAddress, fields, m.CreatedAt, m.UpdatedAt)
}

func AdoptionFromDomain(r domain.Report) Adoption {
	return Adoption{
		ID:            r.ID,
		Name:          strField(r.Fields, "name"),
		Phone:         strField(r.Fields, "phone"),
		Location:      r.Location,
		ManualAddress: r.ManualAddress,
		Occupation:    strField(r.Fields, "occupation"),
		Purpose:       strField(r.Fields, "purpose"),
		Experience:    strField(r.Fields, "experience"),
		AgreedToTerms: boolField(r.Fields, "agreedToTerms"),
		IsAccepted:    r.IsAccepted,
		Owner:         r.Owner,
	}
}

func common(kind herdline.Kind, id, owner string, accepted bool, location, manualAddress *string, fields map[string]any, createdAt, updatedAt time.Time) domain.Report {
	if len(fields) == 0 {
		fields = nil
	}
	return domain.Report{
		ID:            id,
		Kind:          kind,
		Owner:         owner,
		IsAccepted:    accepted,
		Location:      location,
		ManualAddress: manualAddress,
		Fields:        fields,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

func putStr(fields map[string]any, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}

func putInt(fields map[string]any, key string, v *int) {
	if v != nil {
		fields[key] = *v
	}
}

func putBool(fields map[string]any, key string, v *bool) {
	if v != nil {
		fields[key] = *v
	}
}

func putTime(fields map[string]any, key string, v *time.Time) {
	if v != nil {
		fields[key] = *v
	}
}

func strField(fields map[string]any, key string) *string {
	if v, ok := fields[key].(string); ok {
		return &v
	}
	return nil
}

func intField(fields map[string]any, key string) *int {
	switch v := fields[key].(type) {
	case int:
		return &v
	case float64:
		// JSON numbers decode as float64.
		i := int(v)
		return &i
	}
	return nil
}

func boolField(fields map[string]any, key string) *bool {
	if v, ok := fields[key].(bool); ok {
		return &v
	}
	return nil
}

func timeField(fields map[string]any, key string) *time.Time {
	switch v := fields[key].(type) {
	case time.Time:
		return &v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
	}
	return nil
}
