package models

import (
	"encoding/json"
	"fmt"

	"github.com/frontdesk/backend/internal/domain/business"
)

// BusinessRecordModel is the persistence model for the BusinessRecord
// domain entity. The catalog collections and business hours are stored as
// jsonb: they are read and written as whole field groups, never queried
// element-wise.
type BusinessRecordModel struct {
	OwnerModel

	ProviderMerchantID string `gorm:"type:varchar(64);not null;default:''"`
	BusinessName       string `gorm:"type:varchar(255);not null;default:''"`
	Country            string `gorm:"type:varchar(2);not null;default:''"`
	Language           string `gorm:"type:varchar(8);not null;default:''"`
	Currency           string `gorm:"type:varchar(3);not null;default:''"`

	ProviderLocationID string `gorm:"type:varchar(64);not null;default:''"`
	LocationName       string `gorm:"type:varchar(255);not null;default:''"`
	AddressLine1       string `gorm:"type:varchar(255);not null;default:''"`
	AddressLine2       string `gorm:"type:varchar(255);not null;default:''"`
	City               string `gorm:"type:varchar(128);not null;default:''"`
	Region             string `gorm:"type:varchar(128);not null;default:''"`
	PostalCode         string `gorm:"type:varchar(20);not null;default:''"`
	PhoneNumber        string `gorm:"type:varchar(32);not null;default:''"`
	BusinessHours      []byte `gorm:"type:jsonb"`
	Timezone           string `gorm:"type:varchar(64);not null;default:''"`

	Categories []byte `gorm:"type:jsonb"`
	Services   []byte `gorm:"type:jsonb"`
	Items      []byte `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (BusinessRecordModel) TableName() string {
	return "business_records"
}

// ToDomain converts the persistence model to a domain BusinessRecord entity
func (m *BusinessRecordModel) ToDomain() (*business.BusinessRecord, error) {
	record := &business.BusinessRecord{
		OwnerEntity:        m.ToDomainOwnerEntity(),
		ProviderMerchantID: m.ProviderMerchantID,
		BusinessName:       m.BusinessName,
		Country:            m.Country,
		Language:           m.Language,
		Currency:           m.Currency,
		ProviderLocationID: m.ProviderLocationID,
		LocationName:       m.LocationName,
		AddressLine1:       m.AddressLine1,
		AddressLine2:       m.AddressLine2,
		City:               m.City,
		Region:             m.Region,
		PostalCode:         m.PostalCode,
		PhoneNumber:        m.PhoneNumber,
		Timezone:           m.Timezone,
	}
	if err := unmarshalColumn(m.BusinessHours, &record.BusinessHours); err != nil {
		return nil, fmt.Errorf("business hours: %w", err)
	}
	if err := unmarshalColumn(m.Categories, &record.Categories); err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	if err := unmarshalColumn(m.Services, &record.Services); err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	if err := unmarshalColumn(m.Items, &record.Items); err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	return record, nil
}

// FromDomain populates the persistence model from a domain BusinessRecord
func (m *BusinessRecordModel) FromDomain(r *business.BusinessRecord) error {
	m.FromDomainOwnerEntity(r.OwnerEntity)
	m.ProviderMerchantID = r.ProviderMerchantID
	m.BusinessName = r.BusinessName
	m.Country = r.Country
	m.Language = r.Language
	m.Currency = r.Currency
	m.ProviderLocationID = r.ProviderLocationID
	m.LocationName = r.LocationName
	m.AddressLine1 = r.AddressLine1
	m.AddressLine2 = r.AddressLine2
	m.City = r.City
	m.Region = r.Region
	m.PostalCode = r.PostalCode
	m.PhoneNumber = r.PhoneNumber
	m.Timezone = r.Timezone

	var err error
	if m.BusinessHours, err = marshalColumn(r.BusinessHours); err != nil {
		return fmt.Errorf("business hours: %w", err)
	}
	if m.Categories, err = marshalColumn(r.Categories); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	if m.Services, err = marshalColumn(r.Services); err != nil {
		return fmt.Errorf("services: %w", err)
	}
	if m.Items, err = marshalColumn(r.Items); err != nil {
		return fmt.Errorf("items: %w", err)
	}
	return nil
}

// BusinessRecordModelFromDomain creates a new persistence model from a
// domain BusinessRecord entity
func BusinessRecordModelFromDomain(r *business.BusinessRecord) (*BusinessRecordModel, error) {
	m := &BusinessRecordModel{}
	if err := m.FromDomain(r); err != nil {
		return nil, err
	}
	return m, nil
}

func marshalColumn(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
