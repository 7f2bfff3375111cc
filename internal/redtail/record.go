package redtail

import (
	"strconv"
	"strings"
)

// NoContactID - redtail_id, когда контакт по email не найден.
const NoContactID int64 = -1

// Record - плоский снимок контакта: профиль + удостоверение + банк.
// JSON-ключи совпадают с ключами, на которые ссылается field_json шаблонов.
type Record struct {
	Email      string `json:"email"`
	RedtailID  int64  `json:"redtail_id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Suffix     string `json:"suffix"`
	TaxID      string `json:"tax_id"`
	DOB        string `json:"dob_yyyymmdd_dash"`
	FullName   string `json:"full_name"`
	Nickname   string `json:"nickname"`
	JobTitle   string `json:"job_title"`

	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Country       string `json:"country"`

	WorkPhone   string `json:"work_phone"`
	MobilePhone string `json:"mobile_phone"`
	HomePhone   string `json:"home_phone"`

	MiddleInitial    string `json:"middle_initial"`
	DOBYear          string `json:"dob_yyyy"`
	DOBMonth         string `json:"dob_mm"`
	DOBDay           string `json:"dob_dd"`
	DOBMMDDYYYYDash  string `json:"dob_mmddyyyy_dash"`
	DOBDDMMYYYYDash  string `json:"dob_ddmmyyyy_dash"`
	DOBMMDDYYYYSlash string `json:"dob_mmddyyyy_slash"`
	DOBYYYYMMDDSlash string `json:"dob_yyymmdd_slash"`
	DOBDDMMYYYYSlash string `json:"dob_ddmmyyyy_slash"`

	Identification
	Bank
}

// Identification - водительское удостоверение контакта.
type Identification struct {
	DriversLicenseNumber     string `json:"drivers_license_number"`
	DriversLicenseState      string `json:"drivers_license_state"`
	DriversLicenseExpiration string `json:"drivers_license_expiration"`
	DriversLicenseIssueDate  string `json:"drivers_license_issue_date"`
}

// Bank - первый банковский счёт контакта.
type Bank struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
}

// emptyRecord - запись «контакт не найден».
func emptyRecord(email string) Record {
	return Record{Email: email, RedtailID: NoContactID}
}

// Values - все атрибуты записи по их ключам.
func (r Record) Values() map[string]string {
	return map[string]string{
		"email":                      r.Email,
		"redtail_id":                 strconv.FormatInt(r.RedtailID, 10),
		"first_name":                 r.FirstName,
		"middle_name":                r.MiddleName,
		"last_name":                  r.LastName,
		"suffix":                     r.Suffix,
		"tax_id":                     r.TaxID,
		"dob_yyyymmdd_dash":          r.DOB,
		"full_name":                  r.FullName,
		"nickname":                   r.Nickname,
		"job_title":                  r.JobTitle,
		"street_address":             r.StreetAddress,
		"city":                       r.City,
		"state":                      r.State,
		"zip":                        r.Zip,
		"country":                    r.Country,
		"work_phone":                 r.WorkPhone,
		"mobile_phone":               r.MobilePhone,
		"home_phone":                 r.HomePhone,
		"middle_initial":             r.MiddleInitial,
		"dob_yyyy":                   r.DOBYear,
		"dob_mm":                     r.DOBMonth,
		"dob_dd":                     r.DOBDay,
		"dob_mmddyyyy_dash":          r.DOBMMDDYYYYDash,
		"dob_ddmmyyyy_dash":          r.DOBDDMMYYYYDash,
		"dob_mmddyyyy_slash":         r.DOBMMDDYYYYSlash,
		"dob_yyymmdd_slash":          r.DOBYYYYMMDDSlash,
		"dob_ddmmyyyy_slash":         r.DOBDDMMYYYYSlash,
		"drivers_license_number":     r.DriversLicenseNumber,
		"drivers_license_state":      r.DriversLicenseState,
		"drivers_license_expiration": r.DriversLicenseExpiration,
		"drivers_license_issue_date": r.DriversLicenseIssueDate,
		"bank_name":                  r.BankName,
		"account_number":             r.AccountNumber,
		"routing_number":             r.RoutingNumber,
	}
}

// Lookup - значение атрибута по ключу CRM.
func (r Record) Lookup(key string) (string, bool) {
	v, ok := r.Values()[key]
	return v, ok
}

// Keys - отсортированный список известных ключей; отдаётся в GET /clients/keys для UI маппинга.
func Keys() []string {
	return []string{
		"account_number", "bank_name", "city", "country",
		"dob_dd", "dob_ddmmyyyy_dash", "dob_ddmmyyyy_slash", "dob_mm",
		"dob_mmddyyyy_dash", "dob_mmddyyyy_slash", "dob_yyymmdd_slash", "dob_yyyy",
		"dob_yyyymmdd_dash", "drivers_license_expiration", "drivers_license_issue_date",
		"drivers_license_number", "drivers_license_state", "email", "first_name",
		"full_name", "home_phone", "job_title", "last_name", "middle_initial",
		"middle_name", "mobile_phone", "nickname", "redtail_id", "routing_number",
		"state", "street_address", "suffix", "tax_id", "work_phone", "zip",
	}
}

// derive заполняет вычисляемые поля: инициал и форматы даты рождения.
func (r *Record) derive() {
	r.MiddleInitial = ""
	if r.MiddleName != "" {
		r.MiddleInitial = strings.ToUpper(string([]rune(r.MiddleName)[:1]))
	}

	r.DOBYear, r.DOBMonth, r.DOBDay = "", "", ""
	r.DOBMMDDYYYYDash, r.DOBDDMMYYYYDash = "", ""
	r.DOBMMDDYYYYSlash, r.DOBYYYYMMDDSlash, r.DOBDDMMYYYYSlash = "", "", ""

	y, m, d, ok := splitDate(r.DOB)
	if !ok {
		return
	}
	r.DOBYear, r.DOBMonth, r.DOBDay = y, m, d
	r.DOBMMDDYYYYDash = m + "-" + d + "-" + y
	r.DOBDDMMYYYYDash = d + "-" + m + "-" + y
	r.DOBMMDDYYYYSlash = m + "/" + d + "/" + y
	r.DOBYYYYMMDDSlash = y + "/" + m + "/" + d
	r.DOBDDMMYYYYSlash = d + "/" + m + "/" + y
}

// splitDate разбирает YYYY-MM-DD; хвост времени (1980-05-12T00:00:00Z) отбрасывается.
func splitDate(s string) (y, m, d string, ok bool) {
	if len(s) > 10 {
		s = s[:10]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
