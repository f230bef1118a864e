package repo

import (
	"context"
	"strings"

	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/store"
)

// userRecord is the on-disk form of a user; unlike models.User it keeps
// the password digest.
type userRecord struct {
	models.User
	Password string `json:"password"`
}

func (r userRecord) user() models.User {
	u := r.User
	u.PasswordHash = r.Password
	return u
}

func newUserRecord(u models.User) userRecord {
	return userRecord{User: u, Password: u.PasswordHash}
}

type usersDoc struct {
	Users    []userRecord `json:"users"`
	Sequence int          `json:"sequence"`
}

// JSONUserRepo keeps users in a single JSON document ({"users": [...]}).
type JSONUserRepo struct {
	store *store.JSONFile[usersDoc]
}

func NewJSONUserRepo(path string) *JSONUserRepo {
	return &JSONUserRepo{
		store: store.New("users", path, func() usersDoc { return usersDoc{Users: []userRecord{}} }),
	}
}

// Init creates the file on first run and rejects a corrupt one.
func (r *JSONUserRepo) Init() error {
	return r.store.Init()
}

func (r *JSONUserRepo) Ping(_ context.Context) error {
	_, err := r.store.Load()
	return err
}

func (r *JSONUserRepo) Create(_ context.Context, u models.User) (models.User, error) {
	err := r.store.Update(func(doc *usersDoc) error {
		ids := make([]int, 0, len(doc.Users))
		for _, rec := range doc.Users {
			if strings.EqualFold(rec.Email, u.Email) {
				return ErrEmailTaken
			}
			if rec.Username == u.Username {
				return ErrUsernameTaken
			}
			ids = append(ids, rec.ID)
		}
		u.ID = nextID(doc.Sequence, ids)
		doc.Sequence = u.ID
		doc.Users = append(doc.Users, newUserRecord(u))
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r *JSONUserRepo) GetByID(_ context.Context, id int) (models.User, error) {
	return r.find(func(rec userRecord) bool { return rec.ID == id })
}

func (r *JSONUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	return r.find(func(rec userRecord) bool { return strings.EqualFold(rec.Email, email) })
}

func (r *JSONUserRepo) find(match func(userRecord) bool) (models.User, error) {
	var found models.User
	err := r.store.View(func(doc usersDoc) error {
		for _, rec := range doc.Users {
			if match(rec) {
				found = rec.user()
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r *JSONUserRepo) Update(_ context.Context, id int, fn func(u *models.User) error) (models.User, error) {
	var updated models.User
	err := r.store.Update(func(doc *usersDoc) error {
		for i := range doc.Users {
			if doc.Users[i].ID != id {
				continue
			}
			u := doc.Users[i].user()
			if err := fn(&u); err != nil {
				return err
			}
			u.ID = id
			doc.Users[i] = newUserRecord(u)
			updated = u
			return nil
		}
		return ErrNotFound
	})
	return updated, err
}

func (r *JSONUserRepo) List(_ context.Context) ([]models.User, error) {
	var users []models.User
	err := r.store.View(func(doc usersDoc) error {
		users = make([]models.User, 0, len(doc.Users))
		for _, rec := range doc.Users {
			users = append(users, rec.user())
		}
		return nil
	})
	return users, err
}
