package persistence

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/domain/access"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testCPF  = "52998224725"
	testCNPJ = "11222333000181"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// a single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.UserModel{},
		&models.AuthenticationTokenModel{},
		&models.AddressModel{},
		&models.PhoneModel{},
		&models.PersonModel{},
		&models.CompanyModel{},
		&models.ApplicationModel{},
		&models.AccessModel{},
	))
	return db
}

func newTestAddress(t *testing.T) *account.Address {
	t.Helper()
	number := 100
	addr, err := account.NewAddress(89201000, "Rua do Príncipe", &number, "", "Centro", "Joinville", "SC")
	require.NoError(t, err)
	return addr
}

// seedPerson stores a person with its address and one phone
func seedPerson(t *testing.T, db *gorm.DB) *account.Person {
	t.Helper()
	ctx := context.Background()
	addr := newTestAddress(t)
	require.NoError(t, NewGormAddressRepository(db).Create(ctx, addr))

	p, err := account.NewPerson(account.PersonData{
		Name: "Maria da Silva", CPF: testCPF, Email: "Maria@Example.com", RG: "123", Dispatcher: "SSP",
	}, addr)
	require.NoError(t, err)
	require.NoError(t, NewGormPersonRepository(db).Create(ctx, p))

	phone, err := account.NewPhone(testCPF, "(47) 999998888")
	require.NoError(t, err)
	require.NoError(t, NewGormPhoneRepository(db).Create(ctx, phone))
	return p
}

func TestGormUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user, err := identity.NewUser(testCPF, "Maria@Example.com", "Senha123")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("finds by username and by email ignoring case", func(t *testing.T) {
		found, err := repo.FindByUserName(ctx, testCPF)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.False(t, found.EmailConfirmed)
		assert.Equal(t, user.SecurityStamp, found.SecurityStamp)

		found, err = repo.FindByEmail(ctx, "maria@example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("exists checks", func(t *testing.T) {
		ok, err := repo.ExistsByUserName(ctx, testCPF)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsByEmail(ctx, "outro@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update writes false values and bumps the version", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		loaded.ConfirmEmail()
		require.NoError(t, repo.Update(ctx, loaded))
		assert.Equal(t, 2, loaded.Version)

		require.NoError(t, loaded.ChangeEmail("nova@example.com"))
		require.NoError(t, repo.Update(ctx, loaded))

		reloaded, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.EmailConfirmed)
		assert.Equal(t, "nova@example.com", reloaded.Email)
		assert.Equal(t, 3, reloaded.Version)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		fresh, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)

		require.NoError(t, repo.Update(ctx, fresh))
		err = repo.Update(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, fresh.Version-1, stale.Version)
	})
}

func TestGormPersonRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPersonRepository(db)
	ctx := context.Background()
	seeded := seedPerson(t, db)

	t.Run("loads the address and the phones", func(t *testing.T) {
		p, err := repo.FindByCPF(ctx, testCPF)
		require.NoError(t, err)
		assert.Equal(t, "Maria da Silva", p.Name)
		require.NotNil(t, p.Address)
		assert.Equal(t, "Joinville", p.Address.City)
		require.Len(t, p.Phones, 1)
		assert.Equal(t, "(47) 999998888", p.Phones[0].Number)
	})

	t.Run("finds by email ignoring case", func(t *testing.T) {
		p, err := repo.FindByEmail(ctx, "maria@example.com")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, p.ID)
	})

	t.Run("unknown cpf is not found", func(t *testing.T) {
		_, err := repo.FindByCPF(ctx, "12345678909")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update keeps associations out", func(t *testing.T) {
		p, err := repo.FindByCPF(ctx, testCPF)
		require.NoError(t, err)
		p.SetSeiID(42)
		p.MarkSignatureRequested()
		require.NoError(t, repo.Update(ctx, p))

		reloaded, err := repo.FindByCPF(ctx, testCPF)
		require.NoError(t, err)
		require.NotNil(t, reloaded.SeiID)
		assert.Equal(t, int64(42), *reloaded.SeiID)
		assert.Equal(t, account.SignatureUnderApproval, reloaded.SignatureStatus)
		assert.Len(t, reloaded.Phones, 1)
	})

	t.Run("lists by signature status", func(t *testing.T) {
		pending, err := repo.FindBySignatureStatus(ctx, account.SignatureUnderApproval, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, testCPF, pending[0].CPF)

		approved, err := repo.FindBySignatureStatus(ctx, account.SignatureApproved, 10)
		require.NoError(t, err)
		assert.Empty(t, approved)
	})

	t.Run("exists by cpf", func(t *testing.T) {
		ok, err := repo.ExistsByCPF(ctx, testCPF)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestGormCompanyRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCompanyRepository(db)
	ctx := context.Background()

	addr := newTestAddress(t)
	require.NoError(t, NewGormAddressRepository(db).Create(ctx, addr))
	c, err := account.NewCompany(account.CompanyData{
		CNPJ: testCNPJ, Email: "contato@empresa.com", Name: "Empresa", CompanyName: "Empresa LTDA",
	}, addr)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, c))

	found, err := repo.FindByCNPJ(ctx, testCNPJ)
	require.NoError(t, err)
	assert.Equal(t, "Empresa LTDA", found.CompanyName)
	require.NotNil(t, found.Address)
	assert.Empty(t, found.Phones)

	ok, err := repo.ExistsByCNPJ(ctx, testCNPJ)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGormAddressRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAddressRepository(db)
	ctx := context.Background()

	addr := newTestAddress(t)
	require.NoError(t, repo.Create(ctx, addr))

	addr.Set(89202000, "Rua XV de Novembro", nil, "Sala 2", "América", "Joinville", "SC")
	require.NoError(t, repo.Update(ctx, addr))

	found, err := repo.FindByID(ctx, addr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rua XV de Novembro", found.Street)
	assert.Nil(t, found.Number)
	assert.Equal(t, 89202000, *found.ZipCode)

	missing := newTestAddress(t)
	assert.ErrorIs(t, repo.Update(ctx, missing), shared.ErrNotFound)
}

func TestGormPhoneRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPhoneRepository(db)
	ctx := context.Background()

	first, err := account.NewPhone(testCPF, "(47) 999998888")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))
	second, err := account.NewPhone(testCPF, "(47) 34330000")
	require.NoError(t, err)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, second))

	t.Run("lists oldest first", func(t *testing.T) {
		phones, err := repo.FindByDocument(ctx, testCPF)
		require.NoError(t, err)
		require.Len(t, phones, 2)
		assert.Equal(t, first.ID, phones[0].ID)

		count, err := repo.CountByDocument(ctx, testCPF)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("duplicate check ignores the phone itself", func(t *testing.T) {
		dup, err := repo.ExistsNumber(ctx, testCPF, "(47) 34330000", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, dup)

		dup, err = repo.ExistsNumber(ctx, testCPF, "(47) 34330000", second.ID)
		require.NoError(t, err)
		assert.False(t, dup)

		dup, err = repo.ExistsNumber(ctx, testCNPJ, "(47) 34330000", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, dup)
	})

	t.Run("update and delete", func(t *testing.T) {
		require.NoError(t, second.ChangeNumber("(47) 34331111"))
		require.NoError(t, repo.Update(ctx, second))

		found, err := repo.FindByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "(47) 34331111", found.Number)

		require.NoError(t, repo.Delete(ctx, second.ID))
		assert.ErrorIs(t, repo.Delete(ctx, second.ID), shared.ErrNotFound)
		_, err = repo.FindByID(ctx, second.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPersonRepository_SignatureSyncQueue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPersonRepository(db)
	ctx := context.Background()

	for _, cpf := range []string{"52998224725", "11144477735", "12345678909"} {
		addr := newTestAddress(t)
		require.NoError(t, NewGormAddressRepository(db).Create(ctx, addr))
		p, err := account.NewPerson(account.PersonData{
			Name: "Maria", CPF: cpf, Email: cpf + "@example.com", RG: "123", Dispatcher: "SSP",
		}, addr)
		require.NoError(t, err)
		p.MarkSignatureRequested()
		require.NoError(t, repo.Create(ctx, p))
	}

	cpfs := func(people []*account.Person) []string {
		out := make([]string, len(people))
		for i, p := range people {
			out[i] = p.CPF
		}
		return out
	}
	markAll := func(people []*account.Person, at time.Time) {
		for _, p := range people {
			require.NoError(t, repo.MarkSignatureChecked(ctx, p.ID, at))
		}
	}
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	first, err := repo.FindBySignatureStatus(ctx, account.SignatureUnderApproval, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	markAll(first, now)

	second, err := repo.FindBySignatureStatus(ctx, account.SignatureUnderApproval, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.NotContains(t, cpfs(first), second[0].CPF, "a never checked person comes first")
	assert.Nil(t, second[0].SignatureCheckedAt)
	require.NotNil(t, second[1].SignatureCheckedAt)
	markAll(second, now.Add(time.Minute))

	third, err := repo.FindBySignatureStatus(ctx, account.SignatureUnderApproval, 2)
	require.NoError(t, err)
	require.Len(t, third, 2)
	assert.NotContains(t, cpfs(second), third[0].CPF, "the least recently checked person comes next")

	t.Run("stamping keeps the version", func(t *testing.T) {
		p, err := repo.FindByCPF(ctx, "52998224725")
		require.NoError(t, err)
		version := p.Version
		require.NoError(t, repo.MarkSignatureChecked(ctx, p.ID, now.Add(time.Hour)))

		reloaded, err := repo.FindByCPF(ctx, "52998224725")
		require.NoError(t, err)
		assert.Equal(t, version, reloaded.Version)
		require.NotNil(t, reloaded.SignatureCheckedAt)
		assert.True(t, reloaded.SignatureCheckedAt.Equal(now.Add(time.Hour)))
	})

	t.Run("unknown person is not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.MarkSignatureChecked(ctx, uuid.New(), now), shared.ErrNotFound)
	})
}

func TestGormAuthTokenRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAuthTokenRepository(db)
	ctx := context.Background()

	returnURL, _ := url.Parse("https://app.joinville.sc.gov.br/login")
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	old := identity.NewAuthenticationToken(testCPF, returnURL, now.Add(-30*24*time.Hour))
	current := identity.NewAuthenticationToken(testCPF, returnURL, now)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, current))

	found, err := repo.FindByToken(ctx, current.Token)
	require.NoError(t, err)
	assert.Equal(t, "app.joinville.sc.gov.br", found.Domain)
	assert.Nil(t, found.UsedAt)

	used := now.Add(time.Minute)
	found.UsedAt = &used
	require.NoError(t, repo.Update(ctx, found))
	found, err = repo.FindByToken(ctx, current.Token)
	require.NoError(t, err)
	require.NotNil(t, found.UsedAt)

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByToken(ctx, old.Token)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormAuthTokenRepository_RedeemOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAuthTokenRepository(db)
	ctx := context.Background()

	returnURL, _ := url.Parse("https://app.joinville.sc.gov.br/login")
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	token := identity.NewAuthenticationToken(testCPF, returnURL, now)
	require.NoError(t, repo.Create(ctx, token))

	// two redeems that both loaded the token before either stored it
	first, err := repo.FindByToken(ctx, token.Token)
	require.NoError(t, err)
	second, err := repo.FindByToken(ctx, token.Token)
	require.NoError(t, err)
	require.NoError(t, first.Redeem("app.joinville.sc.gov.br", now.Add(time.Minute)))
	require.NoError(t, second.Redeem("app.joinville.sc.gov.br", now.Add(2*time.Minute)))

	require.NoError(t, repo.Update(ctx, first))
	assert.ErrorIs(t, repo.Update(ctx, second), identity.ErrTokenUsed)

	stored, err := repo.FindByToken(ctx, token.Token)
	require.NoError(t, err)
	require.NotNil(t, stored.UsedAt)
	assert.True(t, stored.UsedAt.Equal(now.Add(time.Minute)))

	missing := identity.NewAuthenticationToken(testCPF, returnURL, now)
	require.NoError(t, missing.Use(now))
	assert.ErrorIs(t, repo.Update(ctx, missing), shared.ErrNotFound)
}

func TestGormApplicationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormApplicationRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Alvará Online", "Nota Fiscal Eletrônica", "Protocolo Digital"} {
		app, err := access.NewApplication(access.ApplicationData{Name: name, Enabled: true})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, app))
	}

	t.Run("searches by name and paginates", func(t *testing.T) {
		apps, total, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 2, OrderBy: "name", OrderDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, apps, 2)
		assert.Equal(t, "Alvará Online", apps[0].Name)

		apps, total, err = repo.FindAll(ctx, shared.Filter{Search: "nota"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Nota Fiscal Eletrônica", apps[0].Name)
	})

	t.Run("update uses the version bumped by the domain", func(t *testing.T) {
		apps, _, err := repo.FindAll(ctx, shared.Filter{Search: "protocolo"})
		require.NoError(t, err)
		app := apps[0]

		require.NoError(t, app.Update(access.ApplicationData{Name: "Protocolo Digital", Enabled: false, RequiresApproval: true}))
		require.NoError(t, repo.Update(ctx, app))

		found, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.False(t, found.Enabled)
		assert.True(t, found.RequiresApproval)
		assert.Equal(t, 2, found.Version)
	})
}

func TestGormAccessRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccessRepository(db)
	ctx := context.Background()

	app, err := access.NewApplication(access.ApplicationData{Name: "Protocolo Digital", Enabled: true, RequiresApproval: true})
	require.NoError(t, err)
	require.NoError(t, NewGormApplicationRepository(db).Create(ctx, app))

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	a, err := access.NewAccess(app, testCPF)
	require.NoError(t, err)
	require.NoError(t, a.Prepare(app, now))
	require.NoError(t, repo.Save(ctx, a))

	found, err := repo.FindByDocumentAndApplication(ctx, testCPF, app.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.Equal(t, a.Status, found.Status)

	require.NoError(t, found.RequestAccess(app))
	require.NoError(t, repo.Save(ctx, found))

	requested := access.StatusRequested
	list, err := repo.FindByApplication(ctx, app.ID, &requested)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	_, err = repo.FindByDocumentAndApplication(ctx, testCNPJ, app.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTransactionScope(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()

	t.Run("rolls back every write on error", func(t *testing.T) {
		addr := newTestAddress(t)
		err := scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
			if err := repos.AddressRepo().Create(ctx, addr); err != nil {
				return err
			}
			return shared.ErrInvalidInput
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewGormAddressRepository(db).FindByID(ctx, addr.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("commits on success", func(t *testing.T) {
		addr := newTestAddress(t)
		err := scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
			return repos.AddressRepo().Create(ctx, addr)
		})
		require.NoError(t, err)

		_, err = NewGormAddressRepository(db).FindByID(ctx, addr.ID)
		assert.NoError(t, err)
	})
}
