package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"petconnect/internal/featureflags"
	"petconnect/internal/geo"
	"petconnect/internal/models"
	"petconnect/internal/repository"
	"petconnect/internal/validation"
)

const (
	alertRadiusKm = 5.0
	matchRadiusKm = 10.0
)

// FlagChecker is satisfied by *featureflags.Manager.
type FlagChecker interface {
	Enabled(name string, userID uint) bool
}

type MissingPetService struct {
	reportRepo repository.MissingPetRepository
	petRepo    repository.PetRepository
	userRepo   repository.UserRepository
	notifier   *NotificationService
	flags      FlagChecker
}

type CreateReportInput struct {
	ReporterID       uint
	PetID            *uint
	PetName          string
	Species          string
	Breed            *string
	Description      string
	LastSeenLocation string
	Latitude         float64
	Longitude        float64
	ImageURL         string
	Status           string
}

func NewMissingPetService(
	reportRepo repository.MissingPetRepository,
	petRepo repository.PetRepository,
	userRepo repository.UserRepository,
	notifier *NotificationService,
	flags FlagChecker,
) *MissingPetService {
	return &MissingPetService{
		reportRepo: reportRepo,
		petRepo:    petRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		flags:      flags,
	}
}

// CreateReport files a report, alerts nearby users for MISSING pets and
// suggests matches against opposite-status reports.
func (s *MissingPetService) CreateReport(ctx context.Context, in CreateReportInput) (*models.MissingPetReport, error) {
	status := models.ReportStatusMissing
	if strings.TrimSpace(in.Status) != "" {
		parsed, ok := models.ParseReportStatus(in.Status)
		if !ok || parsed == models.ReportStatusReunited {
			return nil, models.NewValidationError("Status must be MISSING or FOUND")
		}
		status = parsed
	}

	if in.PetID != nil {
		pet, err := s.petRepo.GetByID(ctx, *in.PetID)
		if err != nil {
			return nil, err
		}
		if pet.UserID != in.ReporterID {
			return nil, models.NewForbiddenError("You can only report your own pets")
		}
		in.PetName = pet.Name
		in.Species = pet.Species
		if pet.Breed != "" {
			breed := pet.Breed
			in.Breed = &breed
		} else {
			in.Breed = nil
		}
	}

	in.PetName = strings.TrimSpace(in.PetName)
	in.Species = strings.TrimSpace(in.Species)
	if in.PetName == "" {
		return nil, models.NewValidationError("Pet name is required")
	}
	if in.Species == "" {
		return nil, models.NewValidationError("Species is required")
	}
	if tooLong(in.PetName, 100) || tooLong(in.Species, 50) {
		return nil, models.NewValidationError("Pet name or species too long")
	}
	if in.Breed != nil {
		b := strings.TrimSpace(*in.Breed)
		if b == "" {
			in.Breed = nil
		} else {
			in.Breed = &b
		}
	}
	if !geo.ValidCoordinates(in.Latitude, in.Longitude) {
		return nil, models.NewValidationError("Latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	if tooLong(in.LastSeenLocation, 255) {
		return nil, models.NewValidationError("Last seen location too long (max 255 characters)")
	}
	if err := validation.ValidateImageURL(in.ImageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	report := &models.MissingPetReport{
		PetID:            in.PetID,
		PetName:          in.PetName,
		Species:          in.Species,
		Breed:            in.Breed,
		Description:      in.Description,
		LastSeenLocation: in.LastSeenLocation,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		ImageURL:         in.ImageURL,
		Status:           status,
		ReporterID:       in.ReporterID,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	if report.Status == models.ReportStatusMissing && s.flags != nil && s.flags.Enabled(featureflags.MissingPetAlerts, in.ReporterID) {
		s.alertNearby(ctx, report)
	}
	s.suggestMatches(ctx, report)

	return s.reportRepo.GetByID(ctx, report.ID)
}

func (s *MissingPetService) alertNearby(ctx context.Context, report *models.MissingPetReport) {
	users, err := s.userRepo.ListWithLocation(ctx, report.ReporterID)
	if err != nil {
		return
	}
	message := fmt.Sprintf("MISSING PET NEARBY: %s (%s) was last seen near %s",
		report.PetName, report.Species, report.LastSeenLocation)
	for i := range users {
		u := &users[i]
		if geo.Haversine(report.Latitude, report.Longitude, *u.Latitude, *u.Longitude) > alertRadiusKm {
			continue
		}
		sender, reportID := report.ReporterID, report.ID
		s.notifier.Notify(ctx, NotifyInput{
			UserID:          u.ID,
			Type:            models.NotificationUrgent,
			Message:         message,
			RelatedReportID: &reportID,
			SenderID:        &sender,
		})
	}
}

func breedsMatch(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}

func (s *MissingPetService) suggestMatches(ctx context.Context, report *models.MissingPetReport) {
	opposite, ok := report.Status.Opposite()
	if !ok {
		return
	}
	candidates, err := s.reportRepo.ListMatchCandidates(ctx, report.ID, opposite, report.Species)
	if err != nil {
		return
	}
	kind := "found"
	if report.Status == models.ReportStatusMissing {
		kind = "lost"
	}
	message := fmt.Sprintf("A potential match for your %s pet was reported nearby!", kind)
	for i := range candidates {
		c := &candidates[i]
		if !breedsMatch(report.Breed, c.Breed) {
			continue
		}
		if geo.Haversine(report.Latitude, report.Longitude, c.Latitude, c.Longitude) > matchRadiusKm {
			continue
		}
		newID, matchID := report.ID, c.ID
		newReporter, matchReporter := report.ReporterID, c.ReporterID
		s.notifier.Notify(ctx, NotifyInput{
			UserID:          report.ReporterID,
			Type:            models.NotificationMatchFound,
			Message:         message,
			RelatedReportID: &newID,
			SenderID:        &matchReporter,
		})
		s.notifier.Notify(ctx, NotifyInput{
			UserID:          c.ReporterID,
			Type:            models.NotificationMatchFound,
			Message:         "A potential match for the pet you reported was just posted!",
			RelatedReportID: &matchID,
			SenderID:        &newReporter,
		})
	}
}

func (s *MissingPetService) GetReport(ctx context.Context, id uint) (*models.MissingPetReport, error) {
	return s.reportRepo.GetByID(ctx, id)
}

func (s *MissingPetService) ListMyReports(ctx context.Context, userID uint) ([]models.MissingPetReport, error) {
	return s.reportRepo.ListByReporter(ctx, userID)
}

// Nearby lists reports by great-circle distance from the caller. The caller's
// own reports are always included. Without stored coordinates every report
// is returned newest first with distance 0.
func (s *MissingPetService) Nearby(ctx context.Context, userID uint, radiusKm float64) ([]models.MissingPetResponse, error) {
	if !(radiusKm > 0) {
		radiusKm = DefaultRadiusKm
	}
	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reportRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.MissingPetResponse, 0, len(reports))
	if !me.HasLocation() {
		for i := range reports {
			out = append(out, models.NewMissingPetResponse(&reports[i], 0))
		}
		return out, nil
	}

	type hit struct {
		idx  int
		dist float64
	}
	hits := make([]hit, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		d := geo.Haversine(*me.Latitude, *me.Longitude, r.Latitude, r.Longitude)
		if r.ReporterID != userID && d > radiusKm {
			continue
		}
		hits = append(hits, hit{idx: i, dist: d})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	for _, h := range hits {
		out = append(out, models.NewMissingPetResponse(&reports[h.idx], geo.Round2(h.dist)))
	}
	return out, nil
}

func (s *MissingPetService) ownReport(ctx context.Context, userID, reportID uint, action string) (*models.MissingPetReport, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.ReporterID != userID {
		return nil, models.NewForbiddenError("Only the reporter can " + action + " this report")
	}
	return report, nil
}

func (s *MissingPetService) UpdateStatus(ctx context.Context, userID, reportID uint, raw string) (*models.MissingPetReport, error) {
	status, ok := models.ParseReportStatus(raw)
	if !ok {
		return nil, models.NewValidationError("Status must be one of MISSING, FOUND, REUNITED")
	}
	if _, err := s.ownReport(ctx, userID, reportID, "update"); err != nil {
		return nil, err
	}
	if err := s.reportRepo.UpdateStatus(ctx, reportID, status); err != nil {
		return nil, err
	}
	return s.reportRepo.GetByID(ctx, reportID)
}

func (s *MissingPetService) DeleteReport(ctx context.Context, userID, reportID uint) error {
	if _, err := s.ownReport(ctx, userID, reportID, "delete"); err != nil {
		return err
	}
	return s.reportRepo.Delete(ctx, reportID)
}

// Contact records a message to the reporter with the sender's phone and
// email, and raises an urgent notification.
func (s *MissingPetService) Contact(ctx context.Context, userID, reportID uint, message string) (*models.MissingPetContact, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.ReporterID == userID {
		return nil, models.NewValidationError("You cannot contact yourself about your own report")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.NewValidationError("Message is required")
	}
	if tooLong(message, 1000) {
		return nil, models.NewValidationError("Message too long (max 1000 characters)")
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	contact := &models.MissingPetContact{
		ReportID:      reportID,
		ContactUserID: userID,
		Message:       message,
		ContactPhone:  sender.Phone,
		ContactEmail:  sender.Email,
	}
	if err := s.reportRepo.CreateContact(ctx, contact); err != nil {
		return nil, err
	}
	contact.ContactUser = sender

	senderID := userID
	s.notifier.Notify(ctx, NotifyInput{
		UserID:   report.ReporterID,
		Type:     models.NotificationUrgent,
		Message:  fmt.Sprintf("%s contacted you about your missing pet report!", sender.FullName),
		SenderID: &senderID,
	})
	return contact, nil
}

func (s *MissingPetService) ListContacts(ctx context.Context, userID, reportID uint) ([]models.MissingPetContact, error) {
	if _, err := s.ownReport(ctx, userID, reportID, "view contacts for"); err != nil {
		return nil, err
	}
	return s.reportRepo.ListContacts(ctx, reportID)
}
