package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// JobModulePrefix 岗位模块
	JobModulePrefix = "job"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"
	// RankModulePrefix 排名模块
	RankModulePrefix = "rank"

	// EntityText 文本实体
	EntityText = "text"
	// EntityProfile 岗位画像实体
	EntityProfile = "profile"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"
	// EntityShortlist 入围名单实体
	EntityShortlist = "shortlist"

	// KeyJobProfile 岗位画像缓存 (STRING, JSON)
	// 格式: app:job:profile:{jobID}
	KeyJobProfile = AppPrefix + ":" + JobModulePrefix + ":" + EntityProfile + ":%s"

	// KeyJobDescriptionText 岗位描述文本缓存 (STRING)
	// 格式: app:job:text:{jobID}
	KeyJobDescriptionText = AppPrefix + ":" + JobModulePrefix + ":" + EntityText + ":%s"

	// KeyFileMD5Set 文件MD5集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToSubmissionUUID MD5到SubmissionUUID的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}
	KeyFileMD5ToSubmissionUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"

	// KeyRankShortlist 岗位入围名单缓存 (ZSET, score=total_fit)
	// 格式: app:rank:shortlist:{jobID}
	KeyRankShortlist = AppPrefix + ":" + RankModulePrefix + ":" + EntityShortlist + ":%s"
)
