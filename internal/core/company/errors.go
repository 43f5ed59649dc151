package company

import (
	"errors"
	"fmt"
)

var (
	// ErrCompanyNotFound は会社が存在しない場合に返却されます。
	ErrCompanyNotFound = errors.New("company not found")
	// ErrDuplicateEmail はメールアドレスが他の会社と重複する場合に返却されます。
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrDuplicateShortName は略称が他の会社と重複する場合に返却されます。
	ErrDuplicateShortName = errors.New("short name already exists")
	// ErrCompanyDeleted は論理削除済みの会社を変更しようとした場合に返却されます。
	ErrCompanyDeleted = errors.New("company is deleted")
	// ErrConcurrentModification は読み込み後に他の更新が保存されていた場合に返却されます。
	ErrConcurrentModification = errors.New("company was modified concurrently")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidActor は操作者 ID が指定されていない場合に返却されます。
	ErrInvalidActor = errors.New("invalid actor")
	// ErrInvalidShortName は略称の検索条件が空の場合に返却されます。
	ErrInvalidShortName = errors.New("invalid short name")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = errors.New("invalid page token")
)

// PersistenceError は永続化層での失敗を表します。
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("company: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// persistenceError はドメインエラー以外を PersistenceError に包みます。
func persistenceError(op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	var pErr *PersistenceError
	if errors.As(err, &pErr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrCompanyNotFound,
		ErrDuplicateEmail,
		ErrDuplicateShortName,
		ErrCompanyDeleted,
		ErrConcurrentModification,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
