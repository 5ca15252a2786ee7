package shared

import "context"

// TransactionContext 事務上下文介面
//
// 可選事務參與模式（Optional Transaction Participation）：
// - tx != nil: 在呼叫者的事務中執行
// - tx == nil: auto-commit 模式（僅限讀操作）
//
// Repository 方法約束：
// - Save / Update / Delete：tx 必須為 non-nil
// - FindXxx / ListXxx / CountXxx：tx 可為 nil
//
// 注意：在事務內的讀取必須傳入同一個 tx。
// 單連線資料庫（SQLite in-memory）下，事務外讀取會等待事務結束而造成死鎖。
//
// 範例：
//
//	txManager.InTransaction(ctx, func(tx TransactionContext) error {
//	    payment, err := paymentRepo.FindByID(tx, paymentID)
//	    if err != nil {
//	        return err
//	    }
//	    if err := payment.Confirm(now); err != nil {
//	        return err
//	    }
//	    return paymentRepo.Update(tx, payment)
//	})
//
// 這是標記介面，Infrastructure Layer 負責實作（GORM）。
type TransactionContext interface {
	// 標記介面：僅用於傳遞上下文，不暴露方法
}

// TransactionManager 事務管理器介面
//
// 行為約定：
// - fn 回傳 error → 回滾，原樣回傳該 error
// - fn panic → 回滾後重新 panic
// - fn 回傳 nil → 提交
// - ctx 取消時，資料庫操作中止並回滾
type TransactionManager interface {
	InTransaction(ctx context.Context, fn func(tx TransactionContext) error) error
}
