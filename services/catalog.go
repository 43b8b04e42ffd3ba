package services

import (
	"strings"

	"github.com/capactiyvirus/carebook-backend/models"
)

// Plan names
const (
	PlanOneTime  = "One-Time Appointment"
	PlanSixMonth = "6 Months Plan"
	PlanYearly   = "12 Months Plan"
)

// TimeSlots are the bookable appointment start times
var TimeSlots = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

// Catalog is the static marketing content and the bookable plans
type Catalog struct {
	currency string
	plans    []models.Plan
}

// NewCatalog builds the catalog with plan prices in the given currency
func NewCatalog(currency string) *Catalog {
	currency = strings.ToLower(currency)
	return &Catalog{
		currency: currency,
		plans: []models.Plan{
			{
				Name:     PlanOneTime,
				Price:    2500000,
				Currency: currency,
				Features: []string{
					"Basic testing",
					"Professional health assessment",
					"Secure result delivery",
					"Recommended Complete Treatment",
				},
				ButtonText: "Book Now",
			},
			{
				Name:     PlanSixMonth,
				Price:    13500000,
				Currency: currency,
				Features: []string{
					"All Services in One-Time Appointment",
					"Periodic Treatment (Quarterly)",
					"Priority nurse scheduling",
					"Follow-up consultations",
					"Email support",
				},
				ButtonText: "Subscribe Now",
			},
			{
				Name:     PlanYearly,
				Price:    25000000,
				Currency: currency,
				Features: []string{
					"All Services in 6 Months Plan",
					"24/7 phone support",
					"Dedicated care coordinator",
					"Emergency consultation",
				},
				ButtonText: "Subscribe Now",
				Featured:   true,
			},
		},
	}
}

// Plans lists the bookable plans
func (c *Catalog) Plans() []models.Plan {
	plans := make([]models.Plan, len(c.plans))
	copy(plans, c.plans)
	return plans
}

// Plan looks a plan up by its exact name
func (c *Catalog) Plan(name string) (models.Plan, bool) {
	for _, p := range c.plans {
		if p.Name == name {
			return p, true
		}
	}
	return models.Plan{}, false
}

// Currency is the currency plans are priced in
func (c *Catalog) Currency() string {
	return c.currency
}

// Services lists the care services offered
func (c *Catalog) Services() []models.Service {
	return []models.Service{
		{
			Title:       "Test Sample Collection",
			Description: "Delivered by certified nurses, safely and professionally.",
			Icon:        "test-tube",
			Details: []string{
				"Professional sample collection at your home",
				"Certified and trained healthcare professionals",
				"Strict hygiene and safety protocols",
				"Convenient scheduling to fit your needs",
				"Complete confidentiality and privacy",
			},
		},
		{
			Title:       "Confidential Lab Results",
			Description: "Delivered by certified nurses, safely and professionally.",
			Icon:        "file-text",
			Details: []string{
				"Secure and encrypted result delivery",
				"Direct communication with healthcare providers",
				"Fast turnaround times for urgent cases",
				"Detailed explanations of test results",
				"Follow-up consultations available",
			},
		},
		{
			Title:       "Treatment at Home",
			Description: "Delivered by certified nurses, safely and professionally.",
			Icon:        "home",
			Details: []string{
				"Personalized treatment plans",
				"Medication administration and monitoring",
				"Regular health assessments",
				"Coordination with your primary physician",
				"Emergency support when needed",
			},
		},
	}
}

// Features lists the selling points shown with the services
func (c *Catalog) Features() []models.Feature {
	return []models.Feature{
		{Title: "24/7 Availability", Description: "Round-the-clock support for urgent healthcare needs", Icon: "clock"},
		{Title: "Complete Privacy", Description: "HIPAA compliant with full confidentiality guaranteed", Icon: "shield"},
		{Title: "Expert Team", Description: "Licensed healthcare professionals with specialized training", Icon: "users"},
	}
}

// Testimonials lists patient testimonials
func (c *Catalog) Testimonials() []models.Testimonial {
	return []models.Testimonial{
		{
			Name:      "Sarah",
			Specialty: "Patient",
			Content:   "The confidential home service was exactly what I needed. The nurse was professional, caring, and made me feel completely comfortable throughout the entire process.",
		},
		{
			Name:      "Annie",
			Specialty: "Patient",
			Content:   "Diamond Masters Care provided exceptional service with complete privacy. The results were delivered securely and the follow-up care was outstanding.",
		},
		{
			Name:      "John",
			Specialty: "Patient",
			Content:   "I was nervous about getting tested, but the team made everything so easy and stress-free. The home visit was convenient and the staff was incredibly professional.",
		},
	}
}

// FeaturedNurses lists the nurses shown on the home page
func (c *Catalog) FeaturedNurses() []models.FeaturedNurse {
	return []models.FeaturedNurse{
		{Name: "Patricia Smith", Specialty: "Gynecologist", ImageURL: "https://images.pexels.com/photos/5215024/pexels-photo-5215024.jpeg?auto=compress&cs=tinysrgb&w=400"},
		{Name: "John Smith", Specialty: "Cardiologist", ImageURL: "https://images.pexels.com/photos/6203388/pexels-photo-6203388.jpeg?auto=compress&cs=tinysrgb&w=400"},
		{Name: "Martin Joe", Specialty: "Neurologist", ImageURL: "https://images.pexels.com/photos/6203583/pexels-photo-6203583.jpeg?auto=compress&cs=tinysrgb&w=400", Featured: true},
		{Name: "Thomas Erb", Specialty: "Neurologist", ImageURL: "https://images.pexels.com/photos/6749770/pexels-photo-6749770.jpeg?auto=compress&cs=tinysrgb&w=400"},
	}
}

// validTimeSlot reports whether t is one of TimeSlots
func validTimeSlot(t string) bool {
	for _, slot := range TimeSlots {
		if slot == t {
			return true
		}
	}
	return false
}
