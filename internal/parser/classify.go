package parser

import (
	"strings"

	"github.com/verte-zerg/babylog/internal/model"
)

type detailKind int

const (
	detailNotes detailKind = iota
	detailBreast
	detailBottle
	detailMeasurement
	detailSpan
)

type keywordRule struct {
	keyword  string
	activity model.ActivityType
	detail   detailKind
}

// keywordRules is checked in order and the first contained keyword wins, so
// longer keywords must precede the keywords they contain (搾母乳 before 母乳).
var keywordRules = []keywordRule{
	{keyword: "搾母乳", activity: model.ActivityFeeding, detail: detailBottle},
	{keyword: "母乳", activity: model.ActivityFeeding, detail: detailBreast},
	{keyword: "ミルク", activity: model.ActivityFeeding, detail: detailBottle},
	{keyword: "離乳食", activity: model.ActivityFeeding, detail: detailNotes},
	{keyword: "寝る", activity: model.ActivitySleeping, detail: detailSpan},
	{keyword: "起きる", activity: model.ActivitySleeping, detail: detailSpan},
	{keyword: "おしっこ", activity: model.ActivityDiaper, detail: detailNotes},
	{keyword: "うんち", activity: model.ActivityDiaper, detail: detailNotes},
	{keyword: "体重", activity: model.ActivityWeight, detail: detailMeasurement},
	{keyword: "身長", activity: model.ActivityHeight, detail: detailMeasurement},
	{keyword: "体温", activity: model.ActivityTemperature, detail: detailMeasurement},
	{keyword: "お風呂", activity: model.ActivityBath, detail: detailSpan},
	{keyword: "病院", activity: model.ActivityHospital, detail: detailNotes},
	{keyword: "薬", activity: model.ActivityMedicine, detail: detailNotes},
	{keyword: "散歩", activity: model.ActivityWalk, detail: detailSpan},
	{keyword: "その他", activity: model.ActivityWalk, detail: detailNotes},
}

func matchRule(eventType string) (keywordRule, bool) {
	for _, rule := range keywordRules {
		if strings.Contains(eventType, rule.keyword) {
			return rule, true
		}
	}
	return keywordRule{}, false
}

// Classify maps an event label to its activity type.
func Classify(eventType string) (model.ActivityType, bool) {
	rule, ok := matchRule(eventType)
	if !ok {
		return "", false
	}
	return rule.activity, true
}
