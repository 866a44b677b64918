package social

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jacentio/arbor/store"
)

// AccountPatch is the closed set of mutable account fields. Nil fields are
// left unchanged.
type AccountPatch struct {
	Username *string
	Password *string
}

// Accounts is the account collection.
type Accounts struct {
	st      *store.Store
	cascade *Cascader
}

// Create registers a new account. The account record, its two preference
// side records, and the username uniqueness claim commit in one
// transaction; a taken username surfaces as store.ErrDuplicateValue.
func (a *Accounts) Create(ctx context.Context, username, password string) (*Account, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tables := a.st.Tables()
	id := uuid.NewString()
	item, err := attributevalue.MarshalMap(Account{
		ID:           id,
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	tx := store.NewTx()
	tx.Put(tables.AccountsTable, item, nil)
	tx.Put(tables.LikesTable, prefItem(id), nil)
	tx.Put(tables.ControversialTable, prefItem(id), nil)
	tx.PutConstraint(tables.UniqueTable, usernamePK(username), id, KindAccount, fieldUsername, normalizeUsername(username))

	if err := a.st.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return a.Get(ctx, id)
}

// Get returns the account by id, or store.ErrNotFound.
func (a *Accounts) Get(ctx context.Context, id string) (*Account, error) {
	rec, err := a.st.Get(ctx, a.st.Tables().AccountsTable, id)
	if err != nil {
		return nil, err
	}
	return decodeAccount(rec)
}

// GetByUsername resolves a username (case-insensitively) via its constraint
// record.
func (a *Accounts) GetByUsername(ctx context.Context, username string) (*Account, error) {
	id, err := a.st.GetConstraint(ctx, a.st.Tables().UniqueTable, usernamePK(username))
	if err != nil {
		return nil, err
	}
	return a.Get(ctx, id)
}

// Authenticate returns the account when the credentials match, and
// store.ErrNotFound otherwise. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	acct, err := a.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, store.ErrNotFound
	}
	return acct, nil
}

// List returns every account.
func (a *Accounts) List(ctx context.Context) ([]*Account, error) {
	recs, err := a.st.Scan(ctx, a.st.Tables().AccountsTable)
	if err != nil {
		return nil, err
	}
	accounts := make([]*Account, 0, len(recs))
	for _, rec := range recs {
		acct, err := decodeAccount(rec)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// Update applies the patch. A username change swaps the old and new
// constraint records and rewrites the account in one transaction.
func (a *Accounts) Update(ctx context.Context, id string, patch AccountPatch) (*Account, error) {
	tables := a.st.Tables()
	current, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	attrs, err := a.patchAttrs(patch)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return current, nil
	}

	renamed := patch.Username != nil && normalizeUsername(*patch.Username) != normalizeUsername(current.Username)
	if renamed {
		tx := store.NewTx()
		tx.DeleteConstraint(tables.UniqueTable, usernamePK(current.Username))
		tx.PutConstraint(tables.UniqueTable, usernamePK(*patch.Username), id, KindAccount, fieldUsername, normalizeUsername(*patch.Username))
		tx.Set(tables.AccountsTable, id, attrs, current.Version)
		if err := a.st.Commit(ctx, tx); err != nil {
			return nil, err
		}
	} else if err := a.st.Update(ctx, tables.AccountsTable, id, attrs, current.Version); err != nil {
		return nil, err
	}
	return a.Get(ctx, id)
}

// Delete cascades the account out of every community, event, and post set
// it appears in, removes its preference records and username claim, then
// deletes the account record.
func (a *Accounts) Delete(ctx context.Context, id string) error {
	return a.cascade.Delete(ctx, KindAccount, id)
}

func (a *Accounts) patchAttrs(patch AccountPatch) (map[string]types.AttributeValue, error) {
	attrs := map[string]types.AttributeValue{}
	if patch.Username != nil {
		if err := validateUsername(*patch.Username); err != nil {
			return nil, err
		}
		attrs[fieldUsername] = &types.AttributeValueMemberS{Value: *patch.Username}
	}
	if patch.Password != nil {
		if err := validatePassword(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		attrs["password_hash"] = &types.AttributeValueMemberS{Value: string(hash)}
	}
	return attrs, nil
}

// usernamePK derives the constraint partition key for a username.
func usernamePK(username string) string {
	return store.ConstraintPK(KindAccount, fieldUsername, normalizeUsername(username))
}

// prefItem builds an empty preference side record keyed by the account id.
func prefItem(accountID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: accountID},
	}
}
