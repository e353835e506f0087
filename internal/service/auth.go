package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/internal/session"
)

const fieldActive = "active"

// AuthService verifies credentials, owns the session and manages identities.
type AuthService struct {
	users    CredentialStore
	audit    AuditLog
	digester PasswordDigester
	session  *session.Holder
	nowFn    func() time.Time
	log      *zap.Logger
}

func NewAuthService(users CredentialStore, audit AuditLog, digester PasswordDigester, holder *session.Holder, opts ...Option) *AuthService {
	o := buildOptions(opts)
	return &AuthService{
		users:    users,
		audit:    audit,
		digester: digester,
		session:  holder,
		nowFn:    o.nowFn,
		log:      o.logger.Named("auth"),
	}
}

// Login checks name and password and starts a session.
// Unknown names and wrong passwords both fail with the bare ErrInvalidCredentials.
func (s *AuthService) Login(name, plaintext string) (domain.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(plaintext) == "" {
		return domain.Identity{}, fmt.Errorf("%w: name and password are required", domain.ErrValidation)
	}

	identity, ok, err := s.users.FindByName(name)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("look up identity: %w", err)
	}
	if !ok {
		s.log.Info("login failed", zap.String("name", name), zap.String("reason", "unknown_name"))
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	if !identity.Active {
		s.log.Info("login failed", zap.String("name", name), zap.String("reason", "inactive"))
		return domain.Identity{}, domain.ErrAccountInactive
	}
	if !s.digester.Matches(identity.PasswordDigest, plaintext) {
		s.log.Info("login failed", zap.String("name", name), zap.String("reason", "bad_password"))
		return domain.Identity{}, domain.ErrInvalidCredentials
	}

	if err := s.session.Start(identity); err != nil {
		return domain.Identity{}, err
	}
	s.log.Info("login", zap.String("name", name), zap.String("role", string(identity.Role)))
	return identity, nil
}

// Logout always succeeds.
func (s *AuthService) Logout() {
	if name := s.session.DisplayName(); name != session.Unauthenticated {
		s.log.Info("logout", zap.String("name", name))
	}
	s.session.End()
}

func (s *AuthService) IsAuthenticated() bool { return s.session.IsAuthenticated() }

func (s *AuthService) IsAdmin() bool { return s.session.HasRole(domain.RoleAdmin) }

func (s *AuthService) IsOperator() bool { return s.session.HasRole(domain.RoleOperator) }

func (s *AuthService) CurrentIdentity() (domain.Identity, bool) { return s.session.Current() }

func (s *AuthService) DisplayName() string { return s.session.DisplayName() }

// RequireAuthenticated returns the session identity or ErrForbidden.
func (s *AuthService) RequireAuthenticated() (domain.Identity, error) {
	current, ok := s.session.Current()
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: login required", domain.ErrForbidden)
	}
	return current, nil
}

// RequireAdmin returns the session identity if it is an Admin.
func (s *AuthService) RequireAdmin() (domain.Identity, error) {
	current, err := s.RequireAuthenticated()
	if err != nil {
		return domain.Identity{}, err
	}
	if err := requireRole(current, domain.RoleAdmin); err != nil {
		return domain.Identity{}, err
	}
	return current, nil
}

// CreateIdentity registers a new active identity. Admin only.
func (s *AuthService) CreateIdentity(name, plaintext string, role domain.Role) (domain.Identity, error) {
	actor, err := s.RequireAdmin()
	if err != nil {
		return domain.Identity{}, err
	}
	created, err := s.create(actor, name, plaintext, role)
	if err != nil {
		return domain.Identity{}, err
	}
	s.log.Info("identity created",
		zap.String("actor", actor.Name),
		zap.String("name", created.Name),
		zap.String("role", string(created.Role)),
	)
	return created, nil
}

// BootstrapAdmin creates the first Admin. It only works while no identity exists.
func (s *AuthService) BootstrapAdmin(name, plaintext string) (domain.Identity, error) {
	n, err := s.users.Count()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("count identities: %w", err)
	}
	if n > 0 {
		return domain.Identity{}, fmt.Errorf("%w: identities already exist, ask an administrator", domain.ErrForbidden)
	}
	created, err := s.create(domain.Identity{}, name, plaintext, domain.RoleAdmin)
	if err != nil {
		return domain.Identity{}, err
	}
	s.log.Info("bootstrap admin created", zap.String("name", created.Name))
	return created, nil
}

// create validates, stores and audits an identity. A zero actor means the
// identity creates itself.
func (s *AuthService) create(actor domain.Identity, name, plaintext string, role domain.Role) (domain.Identity, error) {
	identity, err := domain.NewIdentity(name, plaintext, role, s.digester.Digest)
	if err != nil {
		return domain.Identity{}, err
	}
	exists, err := s.users.ExistsByName(identity.Name)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("check identity name: %w", err)
	}
	if exists {
		return domain.Identity{}, fmt.Errorf("%w: %q", domain.ErrDuplicateName, identity.Name)
	}

	// The id only exists once stored, so a creation is audited after the insert.
	created, err := s.users.Insert(identity)
	if err != nil {
		return domain.Identity{}, err
	}
	if actor.ID == "" {
		actor = created
	}
	entry := domain.NewActionEntry(actor, created.ID, domain.EntityUser, domain.ActionCreate,
		fmt.Sprintf("identity %s created with role %s", created.Name, created.Role), s.nowFn())
	if _, err := s.audit.Append(entry); err != nil {
		s.log.Error("identity stored without audit entry", zap.String("id", created.ID), zap.Error(err))
		return domain.Identity{}, fmt.Errorf("audit identity creation: %w", err)
	}
	return created, nil
}

// Deactivate soft-deletes an identity. Admin only; an Admin cannot deactivate themselves.
func (s *AuthService) Deactivate(id string) error {
	return s.setActive(id, false)
}

// Reactivate undoes Deactivate. Admin only.
func (s *AuthService) Reactivate(id string) error {
	return s.setActive(id, true)
}

func (s *AuthService) setActive(id string, active bool) error {
	actor, err := s.RequireAdmin()
	if err != nil {
		return err
	}
	if err := requireID("identity", id); err != nil {
		return err
	}
	target, ok, err := s.users.FindByID(id)
	if err != nil {
		return fmt.Errorf("look up identity: %w", err)
	}
	if !ok {
		return domain.NotFound("identity", id)
	}
	if target.ID == actor.ID && !active {
		return fmt.Errorf("%w: you cannot deactivate your own account", domain.ErrValidation)
	}
	if target.Active == active {
		return nil
	}

	reason := "deactivated"
	if active {
		reason = "reactivated"
	}
	entry := domain.NewUpdateEntry(actor, target.ID, domain.EntityUser, fieldActive,
		strconv.FormatBool(target.Active), strconv.FormatBool(active), reason, s.nowFn())
	if _, err := s.audit.Append(entry); err != nil {
		return fmt.Errorf("audit identity %s: %w", reason, err)
	}

	target.Active = active
	if err := s.users.Update(target); err != nil {
		return err
	}
	s.log.Info("identity "+reason, zap.String("actor", actor.Name), zap.String("name", target.Name))
	return nil
}

// ListIdentities returns every identity. Admin only.
func (s *AuthService) ListIdentities() ([]domain.Identity, error) {
	if _, err := s.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.users.ListAll()
}
