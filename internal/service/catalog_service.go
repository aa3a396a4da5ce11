package service

import (
	"context"

	"leoride/internal/database"
	"leoride/internal/domain"
	"leoride/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CatalogService manages the car fleet and the parking slot inventory.
type CatalogService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewCatalogService(repo domain.Repository, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

func (s *CatalogService) CreateCar(ctx context.Context, car *models.Car) error {
	if car.Model == "" || !car.PricePerHour.IsPositive() {
		return database.ErrInvalidInput
	}
	if car.ID == "" {
		car.ID = uuid.NewString()
	}
	if car.Status == "" {
		car.Status = models.CarAvailable
	}
	return s.repo.CreateCar(ctx, car)
}

func (s *CatalogService) GetCar(ctx context.Context, id string) (*models.Car, error) {
	return s.repo.GetCar(ctx, id)
}

func (s *CatalogService) ListCars(ctx context.Context, status string) ([]*models.Car, error) {
	return s.repo.ListCars(ctx, status)
}

func (s *CatalogService) UpdateCar(ctx context.Context, car *models.Car) error {
	if car.ID == "" || car.Model == "" || !car.PricePerHour.IsPositive() {
		return database.ErrInvalidInput
	}
	return s.repo.UpdateCar(ctx, car)
}

func (s *CatalogService) DeleteCar(ctx context.Context, id string) error {
	return s.repo.DeleteCar(ctx, id)
}

func (s *CatalogService) CreateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error {
	if slot.SlotNumber == "" || !slot.PricePerHour.IsPositive() {
		return database.ErrInvalidInput
	}
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.Status == "" {
		slot.Status = models.SlotAvailable
	}
	return s.repo.CreateParkingSlot(ctx, slot)
}

func (s *CatalogService) GetParkingSlot(ctx context.Context, id string) (*models.ParkingSlot, error) {
	return s.repo.GetParkingSlot(ctx, id)
}

func (s *CatalogService) ListParkingSlots(ctx context.Context, status string) ([]*models.ParkingSlot, error) {
	return s.repo.ListParkingSlots(ctx, status)
}

func (s *CatalogService) UpdateParkingSlot(ctx context.Context, slot *models.ParkingSlot) error {
	if slot.ID == "" || slot.SlotNumber == "" || !slot.PricePerHour.IsPositive() {
		return database.ErrInvalidInput
	}
	return s.repo.UpdateParkingSlot(ctx, slot)
}

func (s *CatalogService) DeleteParkingSlot(ctx context.Context, id string) error {
	return s.repo.DeleteParkingSlot(ctx, id)
}
