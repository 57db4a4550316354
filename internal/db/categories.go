package db

import (
	"encoding/csv"
	"os"
	"strings"

	"gorm.io/gorm"
)

type categoryRecord struct {
	Topic   string
	Subject string
}

// LoadCategories reads topic,subject rows from a CSV and upserts them into
// the categories table. The first row is a header.
func LoadCategories(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	records, err := readCategories(path)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, record := range records {
		entry := Category{Topic: record.Topic, Subject: record.Subject}
		if err := conn.FirstOrCreate(&entry, Category{Topic: entry.Topic, Subject: entry.Subject}).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func readCategories(path string) ([]categoryRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []categoryRecord
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		topic := strings.TrimSpace(row[0])
		subject := strings.TrimSpace(row[1])
		if topic == "" || subject == "" {
			continue
		}
		records = append(records, categoryRecord{Topic: topic, Subject: subject})
	}
	return records, nil
}
