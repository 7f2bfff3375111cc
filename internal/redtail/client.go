// Package redtail получает данные контакта из Redtail CRM и сводит их в одну плоскую запись.
package redtail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"formfill/internal/logs"
)

// Config - доступ к Redtail API.
type Config struct {
	BaseURL  string
	APIKey   string
	Username string
	Password string
	Timeout  time.Duration
}

// AuthHeader - значение Authorization: basic base64(key:user:password).
func (c Config) AuthHeader() string {
	raw := c.APIKey + ":" + c.Username + ":" + c.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", cfg.AuthHeader()).
		SetHeader("include", "phones, emails, addresses").
		SetHeader("Accept", "application/json")
	return &Client{http: hc}
}

type contactSearchResponse struct {
	Contacts []contact `json:"contacts"`
}

type contact struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name"`
	LastName   string    `json:"last_name"`
	Suffix     string    `json:"suffix"`
	TaxID      string    `json:"tax_id"`
	DOB        string    `json:"dob"`
	FullName   string    `json:"full_name"`
	Nickname   string    `json:"nickname"`
	JobTitle   string    `json:"job_title"`
	Addresses  []address `json:"addresses"`
	Phones     []phone   `json:"phones"`
}

type address struct {
	Street        string `json:"street"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Country       string `json:"country"`
}

type phone struct {
	Type   string `json:"phone_type_description"`
	Number string `json:"number"`
}

type identificationsResponse struct {
	Identifications []struct {
		Type           string `json:"identification_type"`
		Number         string `json:"number"`
		State          string `json:"state"`
		ExpirationDate string `json:"expiration_date"`
		IssueDate      string `json:"issue_date"`
	} `json:"identifications"`
}

type banksResponse struct {
	ContactBanks []struct {
		Name          string `json:"name"`
		AccountNumber string `json:"account_number"`
		RoutingNumber string `json:"routing_number"`
	} `json:"contact_banks"`
}

const driversLicenseType = "State Drivers License"

// Gather: поиск контакта по email, затем удостоверение и банк по его id.
// Ошибка возвращается только из поиска контакта; сбои двух остальных запросов
// логируются и дают пустые поля. Не найденный контакт - не ошибка: redtail_id = -1.
func (c *Client) Gather(ctx context.Context, email string) (Record, error) {
	rec, err := c.searchContact(ctx, email)
	if err != nil {
		return Record{}, err
	}
	rec.Identification = c.identification(ctx, rec.RedtailID)
	rec.Bank = c.bank(ctx, rec.RedtailID)
	return rec, nil
}

func (c *Client) searchContact(ctx context.Context, email string) (Record, error) {
	var out contactSearchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("email", email).
		SetResult(&out).
		Get("/contacts/search")
	if err != nil {
		return Record{}, fmt.Errorf("redtail contact search: %w", err)
	}
	if resp.IsError() {
		return Record{}, fmt.Errorf("redtail contact search: unexpected status %d", resp.StatusCode())
	}

	rec := emptyRecord(email)
	if len(out.Contacts) == 0 {
		logs.Logger.WithField("email", email).Info("redtail: no contact for email")
		return rec, nil
	}
	ct := out.Contacts[0]

	if ct.ID != 0 {
		rec.RedtailID = ct.ID
	}
	rec.FirstName = ct.FirstName
	rec.MiddleName = ct.MiddleName
	rec.LastName = ct.LastName
	rec.Suffix = ct.Suffix
	rec.TaxID = ct.TaxID
	rec.DOB = ct.DOB
	rec.FullName = ct.FullName
	rec.Nickname = ct.Nickname
	rec.JobTitle = ct.JobTitle

	if len(ct.Addresses) > 0 {
		a := ct.Addresses[0]
		rec.StreetAddress = a.Street
		if rec.StreetAddress == "" {
			rec.StreetAddress = a.StreetAddress
		}
		rec.City, rec.State, rec.Zip, rec.Country = a.City, a.State, a.Zip, a.Country
	}

	rec.WorkPhone = firstPhone(ct.Phones, "Work")
	rec.MobilePhone = firstPhone(ct.Phones, "Mobile")
	rec.HomePhone = firstPhone(ct.Phones, "Home")

	rec.derive()
	return rec, nil
}

// firstPhone - номер первого телефона категории в порядке ответа CRM.
func firstPhone(phones []phone, kind string) string {
	for _, p := range phones {
		if p.Type == kind {
			return p.Number
		}
	}
	return ""
}

func (c *Client) identification(ctx context.Context, id int64) Identification {
	var info Identification
	if id == NoContactID {
		return info
	}
	var out identificationsResponse
	if err := c.get(ctx, "/contacts/"+strconv.FormatInt(id, 10)+"/identifications", &out); err != nil {
		logs.Logger.WithFields(logrus.Fields{"redtail_id": id}).WithError(err).
			Warn("redtail: identification lookup failed, using empty values")
		return info
	}
	for _, doc := range out.Identifications {
		if doc.Type == driversLicenseType {
			info.DriversLicenseNumber = doc.Number
			info.DriversLicenseState = doc.State
			info.DriversLicenseExpiration = doc.ExpirationDate
			info.DriversLicenseIssueDate = doc.IssueDate
			break
		}
	}
	return info
}

func (c *Client) bank(ctx context.Context, id int64) Bank {
	var info Bank
	if id == NoContactID {
		return info
	}
	var out banksResponse
	if err := c.get(ctx, "/contacts/"+strconv.FormatInt(id, 10)+"/banks", &out); err != nil {
		logs.Logger.WithFields(logrus.Fields{"redtail_id": id}).WithError(err).
			Warn("redtail: bank lookup failed, using empty values")
		return info
	}
	if len(out.ContactBanks) > 0 {
		b := out.ContactBanks[0]
		info.BankName, info.AccountNumber, info.RoutingNumber = b.Name, b.AccountNumber, b.RoutingNumber
	}
	return info
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	resp, err := c.http.R().SetContext(ctx).SetResult(result).Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return nil
}
