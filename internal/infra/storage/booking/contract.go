package booking

import (
	"github.com/nguessop/nguessbeauty-sub001/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor
type TxExecutor = dbmetrics.TxExecutor

// pgExclusionViolation код ошибки postgres при нарушении exclusion constraint bookings_no_overlap
const pgExclusionViolation = "23P01"
