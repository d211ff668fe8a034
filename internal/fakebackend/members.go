package fakebackend

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

var errMemberNotFound = errors.New("member not found")

// Member is a registered account. PasswordHash is never serialized.
type Member struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"-"`
	LastLogin    time.Time `json:"-"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

type memberRepo struct {
	members  map[string]*Member
	emailIds map[string]string // email to member id
	phoneIds map[string]string // phone to member id
	lock     sync.RWMutex
}

func newMemberRepo() *memberRepo {
	return &memberRepo{
		members:  make(map[string]*Member),
		emailIds: make(map[string]string),
		phoneIds: make(map[string]string),
	}
}

func (mr *memberRepo) Upsert(member *Member) {
	mr.lock.Lock()
	defer mr.lock.Unlock()

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	stored := *member
	mr.members[member.ID] = &stored
	if member.Email != "" {
		mr.emailIds[strings.ToLower(member.Email)] = member.ID
	}
	if member.Phone != "" {
		mr.phoneIds[member.Phone] = member.ID
	}
}

func (mr *memberRepo) GetByID(id string) (*Member, error) {
	mr.lock.RLock()
	defer mr.lock.RUnlock()

	member, ok := mr.members[id]
	if !ok {
		return nil, errMemberNotFound
	}
	copied := *member
	return &copied, nil
}

func (mr *memberRepo) GetByEmail(email string) (*Member, error) {
	mr.lock.RLock()
	defer mr.lock.RUnlock()

	id, ok := mr.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, errMemberNotFound
	}
	copied := *mr.members[id]
	return &copied, nil
}

func (mr *memberRepo) GetByPhone(phone string) (*Member, error) {
	mr.lock.RLock()
	defer mr.lock.RUnlock()

	id, ok := mr.phoneIds[phone]
	if !ok {
		return nil, errMemberNotFound
	}
	copied := *mr.members[id]
	return &copied, nil
}

// Update applies fn to the member under the write lock. Reads hand out
// copies, so callers never share the stored value.
func (mr *memberRepo) Update(id string, fn func(*Member)) (*Member, error) {
	mr.lock.Lock()
	defer mr.lock.Unlock()

	member, ok := mr.members[id]
	if !ok {
		return nil, errMemberNotFound
	}
	fn(member)
	if member.Phone != "" {
		mr.phoneIds[member.Phone] = member.ID
	}
	copied := *member
	return &copied, nil
}
