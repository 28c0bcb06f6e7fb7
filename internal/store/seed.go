package store

import (
	"context"
	"fmt"
)

type demoUser struct {
	id       string
	email    string
	name     string
	language string
}

// demoPassword is shared by every seeded demo account.
const demoPassword = "demo123"

var demoUsers = []demoUser{
	{"USER001", "marilyn_monroe@example.com", "Marilyn Monroe", "en"},
	{"USER002", "jim_carrey@example.com", "Jim Carrey", "en"},
	{"USER003", "gal_gadot@example.com", "Gal Gadot", "he"},
	{"USER004", "lior_raz@example.com", "Lior Raz", "he"},
	{"USER005", "adi_himelbloy@example.com", "Adi Himelbloy", "he"},
	{"USER006", "yulia_snigir@example.com", "Yulia Snigir", "ru"},
	{"USER007", "alla_pugacheva@example.com", "Alla Pugacheva", "ru"},
	{"USER008", "sergey_pakhomov@example.com", "Sergey Pakhomov", "ru"},
	{"USER009", "adel_emam@example.com", "Adel Emam", "ar"},
	{"USER010", "rami_malek@example.com", "Rami Malek", "ar"},
}

var demoPrescriptions = []Prescription{
	{ID: "RX_DEMO_0001", PatientID: "USER001", MedID: "med_001", Dosage: "500mg", Quantity: 30, RefillsLeft: 2, Status: PrescriptionReady, PrescribedAt: "2026-07-01", ExpiresAt: "2026-12-31"},
	{ID: "RX_DEMO_0002", PatientID: "USER001", MedID: "med_004", Dosage: "20mg", Quantity: 60, RefillsLeft: 0, Status: PrescriptionExpired, PrescribedAt: "2025-11-15", ExpiresAt: "2026-05-15"},
	{ID: "RX_DEMO_0003", PatientID: "USER003", MedID: "med_002", Dosage: "200mg", Quantity: 20, RefillsLeft: 1, Status: PrescriptionPending, PrescribedAt: "2026-08-01", ExpiresAt: "2027-02-01"},
	{ID: "RX_DEMO_0004", PatientID: "USER006", MedID: "med_003", Dosage: "10mg", Quantity: 90, RefillsLeft: 3, Status: PrescriptionReady, PrescribedAt: "2026-06-20", ExpiresAt: "2026-12-20"},
}

// DemoAccount describes a seeded demo login, exposed for testing endpoints.
type DemoAccount struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language"`
	Name     string `json:"name"`
}

// DemoAccounts lists the seeded demo credentials.
func DemoAccounts() []DemoAccount {
	accounts := make([]DemoAccount, 0, len(demoUsers))
	for _, u := range demoUsers {
		accounts = append(accounts, DemoAccount{
			Email:    u.email,
			Password: demoPassword,
			Language: u.language,
			Name:     u.name,
		})
	}
	return accounts
}

// seedDemoUsers creates the demo accounts and their prescriptions when the
// users table is empty.
func (s *Store) seedDemoUsers() error {
	ctx := context.Background()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, u := range demoUsers {
		if err := s.CreateUser(ctx, u.id, u.email, u.name, demoPassword, u.language); err != nil {
			return err
		}
	}
	for _, p := range demoPrescriptions {
		if err := s.AddPrescription(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
