package company

import (
	"context"
	"errors"
)

// UniquenessGuard はメールアドレスと略称の一意性を書き込み前に確認します。
//
// 読み込みと書き込みの間に排他はないため、同時作成では両方の確認を
// 通過することがあります。最終的な保証はストレージの一意制約が担い、
// Repository.Save がその違反を同じエラー種別に変換します。
//
// 論理削除済みの会社も検索対象に含まれ、メールアドレスと略称を保持し続けます。
type UniquenessGuard struct {
	repo Repository
}

// NewUniquenessGuard は UniquenessGuard を生成します。
func NewUniquenessGuard(repo Repository) *UniquenessGuard {
	return &UniquenessGuard{repo: repo}
}

// Check は email と shortName が excludeID 以外の会社と衝突しないか確認します。
// excludeID が 0 の場合(新規作成)はどの会社とも衝突とみなします。
// 両方が衝突する場合は ErrDuplicateEmail のみを返します。
func (g *UniquenessGuard) Check(ctx context.Context, email, shortName string, excludeID int64) error {
	byEmail, err := g.repo.FindByEmail(ctx, email)
	if err := collision(byEmail, err, excludeID, ErrDuplicateEmail); err != nil {
		return err
	}

	byShortName, err := g.repo.FindByShortName(ctx, shortName)
	if err := collision(byShortName, err, excludeID, ErrDuplicateShortName); err != nil {
		return err
	}

	return nil
}

func collision(found *Company, lookupErr error, excludeID int64, duplicate error) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, ErrCompanyNotFound) {
			return nil
		}
		return persistenceError("uniqueness lookup", lookupErr)
	}
	if found == nil {
		return nil
	}
	if excludeID == 0 || found.ID() != excludeID {
		return duplicate
	}
	return nil
}
