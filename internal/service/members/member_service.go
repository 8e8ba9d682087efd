package members

import (
	"context"
	"fmt"
	"time"

	"github.com/yasarair/flightcore/internal/domain"
	"github.com/yasarair/flightcore/internal/kafka"
	"github.com/yasarair/flightcore/internal/repository"
	"go.uber.org/zap"
)

const statementLimit = 100

type MemberUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Member, error)
	ProfileBySubject(ctx context.Context, subjectID string) (*domain.Member, error)
	GetByNumber(ctx context.Context, memberNumber string) (*domain.Member, error)
	AddExternalMiles(ctx context.Context, memberNumber string, miles int64, description string) (int64, error)
	Statement(ctx context.Context, subjectID string) ([]domain.MilesTransaction, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type RegisterInput struct {
	SubjectID   string
	FirstName   string
	MiddleName  string
	LastName    string
	DateOfBirth *time.Time
	Email       string
}

type MemberService struct {
	members        repository.MemberRepository
	producer       Producer
	newMemberTopic string
	publishTimeout time.Duration
	log            *zap.Logger
}

func NewMemberService(members repository.MemberRepository, producer Producer, newMemberTopic string, publishTimeout time.Duration, log *zap.Logger) *MemberService {
	return &MemberService{
		members:        members,
		producer:       producer,
		newMemberTopic: newMemberTopic,
		publishTimeout: publishTimeout,
		log:            log,
	}
}

func (s *MemberService) Register(ctx context.Context, input RegisterInput) (*domain.Member, error) {
	if input.SubjectID == "" {
		return nil, fmt.Errorf("subject id is required")
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, fmt.Errorf("first and last name are required")
	}

	member := &domain.Member{
		MemberNumber: domain.NewMemberNumber(),
		SubjectID:    input.SubjectID,
		FirstName:    input.FirstName,
		MiddleName:   input.MiddleName,
		LastName:     input.LastName,
		DateOfBirth:  input.DateOfBirth,
		Email:        input.Email,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}

	if s.producer != nil && s.newMemberTopic != "" {
		publishCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
		if err := s.producer.Publish(publishCtx, s.newMemberTopic, member.MemberNumber, kafka.NewMemberEvent{
			MemberID:     member.ID,
			MemberNumber: member.MemberNumber,
			Email:        member.Email,
			FirstName:    member.FirstName,
		}); err != nil {
			s.log.Warn("failed to publish new member event", zap.String("member_number", member.MemberNumber), zap.Error(err))
		}
	}
	return member, nil
}

func (s *MemberService) ProfileBySubject(ctx context.Context, subjectID string) (*domain.Member, error) {
	return s.members.GetBySubject(ctx, subjectID)
}

func (s *MemberService) GetByNumber(ctx context.Context, memberNumber string) (*domain.Member, error) {
	return s.members.GetByNumber(ctx, memberNumber)
}

// AddExternalMiles records an administrative credit from a partner airline.
// The delta may be negative for corrections; the ledger rejects anything that
// would drive the balance below zero.
func (s *MemberService) AddExternalMiles(ctx context.Context, memberNumber string, miles int64, description string) (int64, error) {
	if miles == 0 {
		return 0, fmt.Errorf("miles must be non-zero")
	}
	member, err := s.members.GetByNumber(ctx, memberNumber)
	if err != nil {
		return 0, err
	}
	if description == "" {
		description = "External airline miles"
	}
	return s.members.ApplyTransaction(ctx, member.ID, miles, domain.TransactionExternal, description, nil)
}

func (s *MemberService) Statement(ctx context.Context, subjectID string) ([]domain.MilesTransaction, error) {
	member, err := s.members.GetBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.members.ListTransactions(ctx, member.ID, statementLimit)
}

var _ MemberUseCase = (*MemberService)(nil)
