package company

import "context"

// Repository は会社エンティティの永続化を行うインターフェースです。
// 該当レコードが存在しない検索は ErrCompanyNotFound を返します。
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Company, error)
	FindByEmail(ctx context.Context, email string) (*Company, error)
	FindByShortName(ctx context.Context, shortName string) (*Company, error)
	// Save は ID が 0 の会社を新規作成し、それ以外はバージョンを照合して更新します。
	// 一意制約違反は ErrDuplicateEmail / ErrDuplicateShortName、
	// バージョン不一致は ErrConcurrentModification として返します。
	Save(ctx context.Context, company *Company) (*Company, error)
	ListActive(ctx context.Context, page Page) ([]*Company, string, error)
	ListDeleted(ctx context.Context, page Page) ([]*Company, string, error)
}

// Page は一覧取得時のページ指定です。
type Page struct {
	Limit  int
	Offset int
}
