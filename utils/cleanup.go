package utils

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/topic-slides-backend/models"
)

// CleanupOrphanRows xóa slide và tiến độ học không còn topic
// (ví dụ slide được tạo trong lúc topic đang bị xóa)
func CleanupOrphanRows(db *gorm.DB) (slides, progress int64, err error) {
	topicIDs := func() *gorm.DB { return db.Model(&models.Topic{}).Select("id") }

	res := db.Where("topic_id NOT IN (?)", topicIDs()).Delete(&models.Slide{})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	slides = res.RowsAffected

	res = db.Where("topic_id NOT IN (?)", topicIDs()).Delete(&models.UserProgress{})
	if res.Error != nil {
		return slides, 0, res.Error
	}
	return slides, res.RowsAffected, nil
}

func runCleanup(db *gorm.DB) {
	slides, progress, err := CleanupOrphanRows(db)
	if err != nil {
		log.Printf("Lỗi khi dọn dữ liệu mồ côi: %v", err)
		return
	}
	if slides > 0 || progress > 0 {
		log.Printf("Đã xóa %d slide và %d tiến độ học không còn topic", slides, progress)
	}
}

// StartCleanupJob chạy cleanup job định kỳ, trả về hàm dừng job
func StartCleanupJob(db *gorm.DB, interval time.Duration) (stop func()) {
	// Chạy cleanup ngay lần đầu khi khởi động
	log.Println("Đang chạy cleanup lần đầu...")
	runCleanup(db)

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				log.Println("Cleanup job được kích hoạt...")
				runCleanup(db)
			case <-done:
				return
			}
		}
	}()

	log.Printf("Cleanup job đã được khởi động (chạy mỗi %s)", interval)
	return func() { close(done) }
}
